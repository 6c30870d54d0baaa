package inject

import (
	"strings"

	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

// Reserved names for the synthetic actions. They are namespaced under a
// faasr-vm- prefix so user-authored names and repeated injection runs cannot
// collide with them accidentally, and deterministic so polling logic can key
// on them.
const (
	StartName  = "faasr-vm-start"
	StopName   = "faasr-vm-stop"
	pollPrefix = "faasr-vm-poll-"
)

// Functions the synthetic actions execute at runtime.
const (
	startFunction = "vm_start"
	stopFunction  = "vm_stop"
	pollFunction  = "vm_poll"
)

// syntheticType is the language tag of the builtin VM management functions.
const syntheticType = "Python"

// PollName derives the poll gate's name for a VM-requiring action.
func PollName(target string) string {
	return pollPrefix + target
}

// IsSyntheticName reports whether a name belongs to this tool's reserved
// namespace.
func IsSyntheticName(name string) bool {
	return name == StartName || name == StopName || strings.HasPrefix(name, pollPrefix)
}

// newStartAction builds the VM start action. Its single successor is the
// original entry point; whether anything waits on it is the strategy's
// business, the node's shape is the same either way.
func newStartAction(server, entry string) *workflow.Action {
	return &workflow.Action{
		FunctionName: startFunction,
		Server:       server,
		Type:         syntheticType,
		Next:         workflow.NextTo(entry),
		Builtin:      true,
	}
}

// newStopAction builds the VM stop action, the graph's new terminal node.
func newStopAction(server string) *workflow.Action {
	return &workflow.Action{
		FunctionName: stopFunction,
		Server:       server,
		Type:         syntheticType,
		Builtin:      true,
	}
}

// newPollAction builds the readiness gate for one VM-requiring action.
func newPollAction(server, target string) *workflow.Action {
	return &workflow.Action{
		FunctionName: pollFunction,
		Server:       server,
		Type:         syntheticType,
		Next:         workflow.NextTo(target),
		Builtin:      true,
	}
}
