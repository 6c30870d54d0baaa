package workflow

import (
	"encoding/json"
	"fmt"
)

const (
	memberWorkflowName     = "WorkflowName"
	memberFunctionInvoke   = "FunctionInvoke"
	memberActionList       = "ActionList"
	memberComputeServers   = "ComputeServers"
	memberActionContainers = "ActionContainers"
	memberVMConfig         = "VMConfig"
)

// NameConflictError reports an attempt to add an action under a name that is
// already taken. Synthetic names are never silently renamed; out-of-band
// consumers key on them.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("action name conflict: %q already exists", e.Name)
}

// omap is an insertion-ordered string-keyed map.
type omap[V any] struct {
	keys []string
	vals map[string]V
}

func (m *omap[V]) set(key string, val V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

func (m *omap[V]) get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *omap[V]) names() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *omap[V]) len() int { return len(m.keys) }

// Workflow is the full FaaSr document. Top-level members the model does not
// understand are kept verbatim and re-emitted in place.
type Workflow struct {
	// Name is the document's WorkflowName.
	Name string
	// Entry is FunctionInvoke, the action execution begins with.
	Entry string
	// VMConfig is carried opaquely; its presence is the injection
	// precondition, its contents belong to the runtime.
	VMConfig json.RawMessage

	actions    omap[*Action]
	servers    omap[*Server]
	containers omap[string]

	top *rawObject
}

// ActionNames returns action names in document order.
func (w *Workflow) ActionNames() []string { return w.actions.names() }

// Action returns the named action. The pointer aliases the workflow's own
// state; mutating it mutates the graph.
func (w *Workflow) Action(name string) (*Action, bool) { return w.actions.get(name) }

// HasAction reports whether the name is taken.
func (w *Workflow) HasAction(name string) bool {
	_, ok := w.actions.get(name)
	return ok
}

// ActionCount returns the number of actions in the graph.
func (w *Workflow) ActionCount() int { return w.actions.len() }

// AddAction appends a new action to the graph. Adding a name that already
// exists fails with NameConflictError; this is the only error the graph
// model raises.
func (w *Workflow) AddAction(name string, a *Action) error {
	if w.HasAction(name) {
		return &NameConflictError{Name: name}
	}
	w.actions.set(name, a)
	return nil
}

// ReplaceNext swaps the named action's successor set wholesale. Partial,
// shape-preserving edits go through Next.Redirect instead.
func (w *Workflow) ReplaceNext(name string, next Next) error {
	a, ok := w.actions.get(name)
	if !ok {
		return fmt.Errorf("no such action: %q", name)
	}
	a.Next = next
	return nil
}

// SetEntry points the document's FunctionInvoke at the given action.
func (w *Workflow) SetEntry(name string) { w.Entry = name }

// ServerNames returns compute server names in document order.
func (w *Workflow) ServerNames() []string { return w.servers.names() }

// Server returns the named compute server.
func (w *Workflow) Server(name string) (*Server, bool) { return w.servers.get(name) }

// Container returns the container image registered for the named action.
func (w *Workflow) Container(name string) (string, bool) { return w.containers.get(name) }

// SetContainer registers a container image for the named action.
func (w *Workflow) SetContainer(name, image string) { w.containers.set(name, image) }

// HasVMConfig reports whether the document declares VM configuration.
func (w *Workflow) HasVMConfig() bool { return len(w.VMConfig) > 0 }

// HasVMActions reports whether any action requires the VM.
func (w *Workflow) HasVMActions() bool {
	for _, name := range w.actions.keys {
		if a, _ := w.actions.get(name); a != nil && a.RequiresVM {
			return true
		}
	}
	return false
}

// Clone returns a fully independent copy of the workflow. Injection always
// operates on a clone so a failed call leaves the caller's value untouched.
func (w *Workflow) Clone() (*Workflow, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("cloning workflow: %w", err)
	}
	var out Workflow
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cloning workflow: %w", err)
	}
	return &out, nil
}

// UnmarshalJSON parses the document, lifting the members the engine works
// with and retaining everything else raw.
func (w *Workflow) UnmarshalJSON(data []byte) error {
	top, err := decodeRawObject(data)
	if err != nil {
		return err
	}
	out := Workflow{top: top}

	if raw, ok := top.get(memberWorkflowName); ok {
		if err := json.Unmarshal(raw, &out.Name); err != nil {
			return fmt.Errorf("WorkflowName: %w", err)
		}
	}
	if raw, ok := top.get(memberFunctionInvoke); ok {
		if err := json.Unmarshal(raw, &out.Entry); err != nil {
			return fmt.Errorf("FunctionInvoke: %w", err)
		}
	}
	if raw, ok := top.get(memberVMConfig); ok {
		out.VMConfig = raw
	}

	if raw, ok := top.get(memberActionList); ok {
		obj, err := decodeRawObject(raw)
		if err != nil {
			return fmt.Errorf("ActionList: %w", err)
		}
		for _, name := range obj.keys {
			a := &Action{}
			if err := json.Unmarshal(obj.vals[name], a); err != nil {
				return fmt.Errorf("action %q: %w", name, err)
			}
			out.actions.set(name, a)
		}
	}

	if raw, ok := top.get(memberComputeServers); ok {
		obj, err := decodeRawObject(raw)
		if err != nil {
			return fmt.Errorf("ComputeServers: %w", err)
		}
		for _, name := range obj.keys {
			s := &Server{}
			if err := json.Unmarshal(obj.vals[name], s); err != nil {
				return fmt.Errorf("server %q: %w", name, err)
			}
			out.servers.set(name, s)
		}
	}

	if raw, ok := top.get(memberActionContainers); ok {
		obj, err := decodeRawObject(raw)
		if err != nil {
			return fmt.Errorf("ActionContainers: %w", err)
		}
		for _, name := range obj.keys {
			var image string
			if err := json.Unmarshal(obj.vals[name], &image); err != nil {
				return fmt.Errorf("container for %q: %w", name, err)
			}
			out.containers.set(name, image)
		}
	}

	*w = out
	return nil
}

// MarshalJSON re-encodes the document in its original member order. Members
// added by injection (e.g. ActionContainers on a document that had none)
// are appended at the end.
func (w Workflow) MarshalJSON() ([]byte, error) {
	top := newRawObject()
	if w.top != nil {
		for _, k := range w.top.keys {
			top.set(k, w.top.vals[k])
		}
	}

	setString := func(member, val string) error {
		if !top.has(member) && val == "" {
			return nil
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		top.set(member, raw)
		return nil
	}
	setObject := func(member string, keys []string, value func(string) (any, error), keepEmpty bool) error {
		if len(keys) == 0 && !top.has(member) && !keepEmpty {
			return nil
		}
		obj := newRawObject()
		for _, k := range keys {
			v, err := value(k)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("%s member %q: %w", member, k, err)
			}
			obj.set(k, raw)
		}
		raw, err := obj.encode()
		if err != nil {
			return err
		}
		top.set(member, raw)
		return nil
	}

	if err := setString(memberWorkflowName, w.Name); err != nil {
		return nil, err
	}
	if err := setString(memberFunctionInvoke, w.Entry); err != nil {
		return nil, err
	}
	if err := setObject(memberActionList, w.actions.keys, func(k string) (any, error) {
		a, _ := w.actions.get(k)
		return a, nil
	}, true); err != nil {
		return nil, err
	}
	if err := setObject(memberComputeServers, w.servers.keys, func(k string) (any, error) {
		s, _ := w.servers.get(k)
		return s, nil
	}, false); err != nil {
		return nil, err
	}
	if err := setObject(memberActionContainers, w.containers.keys, func(k string) (any, error) {
		img, _ := w.containers.get(k)
		return img, nil
	}, false); err != nil {
		return nil, err
	}
	if len(w.VMConfig) > 0 {
		top.set(memberVMConfig, w.VMConfig)
	}

	return top.encode()
}
