// Package workflow holds the in-memory model of a FaaSr workflow document.
//
// The document is JSON whose member order is meaningful to us: injection
// walks the action set in document order so that repeated runs produce
// identical output, and round-tripping a document must not shuffle keys.
// The model therefore keeps every object it parses as an insertion-ordered
// collection and re-encodes members in the order they were read. Members the
// model does not understand are preserved verbatim.
//
// An Action's successor edges (InvokeNext) appear in the wild in three
// shapes: a single action name, a list of names, or a map from a condition
// label to a name or list of names. All three are carried by the Next type,
// which can normalize itself to a flat target list for topology queries and
// redirect individual targets without disturbing the surrounding shape.
package workflow
