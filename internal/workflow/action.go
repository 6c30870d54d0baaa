package workflow

import (
	"encoding/json"
	"fmt"
)

// Member names the model lifts out of action and server objects. Everything
// else rides along in the backing rawObject.
const (
	memberFunctionName = "FunctionName"
	memberFaaSServer   = "FaaSServer"
	memberType         = "Type"
	memberRequiresVM   = "RequiresVM"
	memberInvokeNext   = "InvokeNext"
	memberBuiltin      = "_faasr_builtin"
	memberFaaSType     = "FaaSType"
	memberBranch       = "Branch"
)

// Action is one node of the workflow graph.
type Action struct {
	// FunctionName is the function the action executes, not its graph name.
	FunctionName string
	// Server references a ComputeServers entry.
	Server string
	// Type is the action's language tag (e.g. "Python").
	Type string
	// RequiresVM marks actions that must not run before the VM is ready.
	RequiresVM bool
	// Next is the action's outbound edge set.
	Next Next
	// Builtin marks actions injected by this tool rather than authored by
	// the user.
	Builtin bool

	raw *rawObject
}

// UnmarshalJSON lifts the known members out of the object and keeps the rest
// for a faithful re-encode.
func (a *Action) UnmarshalJSON(data []byte) error {
	obj, err := decodeRawObject(data)
	if err != nil {
		return err
	}
	out := Action{raw: obj}
	if raw, ok := obj.get(memberFunctionName); ok {
		if err := json.Unmarshal(raw, &out.FunctionName); err != nil {
			return fmt.Errorf("FunctionName: %w", err)
		}
	}
	if raw, ok := obj.get(memberFaaSServer); ok {
		if err := json.Unmarshal(raw, &out.Server); err != nil {
			return fmt.Errorf("FaaSServer: %w", err)
		}
	}
	if raw, ok := obj.get(memberType); ok {
		if err := json.Unmarshal(raw, &out.Type); err != nil {
			return fmt.Errorf("Type: %w", err)
		}
	}
	if raw, ok := obj.get(memberRequiresVM); ok {
		if err := json.Unmarshal(raw, &out.RequiresVM); err != nil {
			return fmt.Errorf("RequiresVM: %w", err)
		}
	}
	if raw, ok := obj.get(memberInvokeNext); ok {
		if err := json.Unmarshal(raw, &out.Next); err != nil {
			return err
		}
	}
	if raw, ok := obj.get(memberBuiltin); ok {
		if err := json.Unmarshal(raw, &out.Builtin); err != nil {
			return fmt.Errorf("%s: %w", memberBuiltin, err)
		}
	}
	*a = out
	return nil
}

// MarshalJSON re-encodes the action with members in their original order.
// Members the action never had are appended only when they carry a value,
// so untouched actions round-trip byte-for-byte.
func (a Action) MarshalJSON() ([]byte, error) {
	obj := newRawObject()
	if a.raw != nil {
		for _, k := range a.raw.keys {
			obj.set(k, a.raw.vals[k])
		}
	}

	setString := func(member, val string) error {
		if !obj.has(member) && val == "" {
			return nil
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		obj.set(member, raw)
		return nil
	}
	setBool := func(member string, val bool) {
		if !obj.has(member) && !val {
			return
		}
		if val {
			obj.set(member, json.RawMessage("true"))
		} else {
			obj.set(member, json.RawMessage("false"))
		}
	}

	if err := setString(memberFunctionName, a.FunctionName); err != nil {
		return nil, err
	}
	if err := setString(memberFaaSServer, a.Server); err != nil {
		return nil, err
	}
	if err := setString(memberType, a.Type); err != nil {
		return nil, err
	}
	setBool(memberRequiresVM, a.RequiresVM)

	nextRaw, err := a.Next.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if obj.has(memberInvokeNext) || !a.Next.IsEmpty() {
		obj.set(memberInvokeNext, nextRaw)
	}
	setBool(memberBuiltin, a.Builtin)

	return obj.encode()
}

// Server is one ComputeServers entry. Only the platform tag and branch are
// modeled; credentials and endpoints stay in the raw members.
type Server struct {
	FaaSType string
	Branch   string

	raw *rawObject
}

func (s *Server) UnmarshalJSON(data []byte) error {
	obj, err := decodeRawObject(data)
	if err != nil {
		return err
	}
	out := Server{raw: obj}
	if raw, ok := obj.get(memberFaaSType); ok {
		if err := json.Unmarshal(raw, &out.FaaSType); err != nil {
			return fmt.Errorf("FaaSType: %w", err)
		}
	}
	if raw, ok := obj.get(memberBranch); ok {
		if err := json.Unmarshal(raw, &out.Branch); err != nil {
			return fmt.Errorf("Branch: %w", err)
		}
	}
	*s = out
	return nil
}

func (s Server) MarshalJSON() ([]byte, error) {
	obj := newRawObject()
	if s.raw != nil {
		for _, k := range s.raw.keys {
			obj.set(k, s.raw.vals[k])
		}
	}
	if obj.has(memberFaaSType) || s.FaaSType != "" {
		raw, err := json.Marshal(s.FaaSType)
		if err != nil {
			return nil, err
		}
		obj.set(memberFaaSType, raw)
	}
	if obj.has(memberBranch) || s.Branch != "" {
		raw, err := json.Marshal(s.Branch)
		if err != nil {
			return nil, err
		}
		obj.set(memberBranch, raw)
	}
	return obj.encode()
}
