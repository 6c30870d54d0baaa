package workflow

import (
	"encoding/json"
	"fmt"
)

// nextKind discriminates the three successor shapes a FaaSr action can carry.
type nextKind int

const (
	nextNone nextKind = iota
	nextSingle
	nextList
	nextConditional
)

// condition is one labeled branch of a conditional successor set. single
// records whether the branch was written as a bare string so the shape
// survives a round-trip.
type condition struct {
	label   string
	targets []string
	single  bool
}

// Next is an action's outbound edge set. The zero value is an empty edge set
// (a leaf).
type Next struct {
	kind nextKind
	// targets backs the single and list shapes.
	targets []string
	conds   []condition
}

// NextTo returns a single-target edge set, the shape the injector gives
// every synthetic action.
func NextTo(target string) Next {
	return Next{kind: nextList, targets: []string{target}}
}

// IsEmpty reports whether the action has no successors.
func (n Next) IsEmpty() bool {
	switch n.kind {
	case nextNone:
		return true
	case nextSingle, nextList:
		return len(n.targets) == 0
	case nextConditional:
		for _, c := range n.conds {
			if len(c.targets) > 0 {
				return false
			}
		}
		return true
	}
	return true
}

// Targets flattens the edge set to its distinct target names, in first-seen
// order. Condition labels are dropped; a name reachable through several
// branches appears once.
func (n Next) Targets() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	switch n.kind {
	case nextSingle, nextList:
		for _, t := range n.targets {
			add(t)
		}
	case nextConditional:
		for _, c := range n.conds {
			for _, t := range c.targets {
				add(t)
			}
		}
	}
	return out
}

// Contains reports whether name is among the edge set's targets.
func (n Next) Contains(name string) bool {
	for _, t := range n.Targets() {
		if t == name {
			return true
		}
	}
	return false
}

// Redirect returns a copy of the edge set with every occurrence of old
// replaced by repl. The shape is preserved: list order, condition labels,
// condition order, and string-vs-list branch values all stay as they were.
// The boolean reports whether anything was replaced.
func (n Next) Redirect(old, repl string) (Next, bool) {
	changed := false
	out := n.clone()
	switch out.kind {
	case nextSingle, nextList:
		for i, t := range out.targets {
			if t == old {
				out.targets[i] = repl
				changed = true
			}
		}
	case nextConditional:
		for ci := range out.conds {
			for ti, t := range out.conds[ci].targets {
				if t == old {
					out.conds[ci].targets[ti] = repl
					changed = true
				}
			}
		}
	}
	return out, changed
}

// ConditionTargets returns the targets recorded under the given condition
// label, or nil if the edge set is not conditional or lacks the label.
func (n Next) ConditionTargets(label string) []string {
	for _, c := range n.conds {
		if c.label == label {
			out := make([]string, len(c.targets))
			copy(out, c.targets)
			return out
		}
	}
	return nil
}

// ConditionLabels returns the condition labels in document order, or nil for
// non-conditional edge sets.
func (n Next) ConditionLabels() []string {
	if n.kind != nextConditional {
		return nil
	}
	out := make([]string, len(n.conds))
	for i, c := range n.conds {
		out[i] = c.label
	}
	return out
}

func (n Next) clone() Next {
	out := Next{kind: n.kind}
	if n.targets != nil {
		out.targets = make([]string, len(n.targets))
		copy(out.targets, n.targets)
	}
	if n.conds != nil {
		out.conds = make([]condition, len(n.conds))
		for i, c := range n.conds {
			cc := condition{label: c.label, single: c.single}
			cc.targets = make([]string, len(c.targets))
			copy(cc.targets, c.targets)
			out.conds[i] = cc
		}
	}
	return out
}

// Equal reports whether two edge sets have identical shape and content.
func (n Next) Equal(other Next) bool {
	a, err := n.MarshalJSON()
	if err != nil {
		return false
	}
	b, err := other.MarshalJSON()
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

// UnmarshalJSON accepts all shapes InvokeNext appears in: null, a string, a
// list of strings, or an object mapping condition labels to a string or a
// list of strings.
func (n *Next) UnmarshalJSON(data []byte) error {
	switch data[0] {
	case 'n': // null
		*n = Next{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Next{kind: nextSingle, targets: []string{s}}
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("InvokeNext list: %w", err)
		}
		*n = Next{kind: nextList, targets: list}
		return nil
	case '{':
		obj, err := decodeRawObject(data)
		if err != nil {
			return fmt.Errorf("InvokeNext conditions: %w", err)
		}
		out := Next{kind: nextConditional}
		for _, label := range obj.keys {
			raw := obj.vals[label]
			c := condition{label: label}
			if len(raw) > 0 && raw[0] == '"' {
				var s string
				if err := json.Unmarshal(raw, &s); err != nil {
					return err
				}
				c.single = true
				c.targets = []string{s}
			} else {
				if err := json.Unmarshal(raw, &c.targets); err != nil {
					return fmt.Errorf("InvokeNext condition %q: %w", label, err)
				}
			}
			out.conds = append(out.conds, c)
		}
		*n = out
		return nil
	}
	return fmt.Errorf("InvokeNext has unsupported JSON shape: %s", data)
}

// MarshalJSON writes the edge set back in the shape it was read in. The zero
// value encodes as an empty list, matching what the original documents use
// for leaves.
func (n Next) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case nextNone:
		return []byte("[]"), nil
	case nextSingle:
		if len(n.targets) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(n.targets[0])
	case nextList:
		if n.targets == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(n.targets)
	case nextConditional:
		obj := newRawObject()
		for _, c := range n.conds {
			var raw []byte
			var err error
			if c.single && len(c.targets) == 1 {
				raw, err = json.Marshal(c.targets[0])
			} else {
				raw, err = json.Marshal(c.targets)
			}
			if err != nil {
				return nil, err
			}
			obj.set(c.label, raw)
		}
		return obj.encode()
	}
	return nil, fmt.Errorf("unknown InvokeNext kind %d", n.kind)
}
