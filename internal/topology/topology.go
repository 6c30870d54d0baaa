// Package topology computes the structural facts injection needs from a
// workflow graph: the unique entry action, the leaf set, the VM-requiring
// set, and where synthetic actions can be hosted.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

var (
	// ErrNoEntry means no action has zero predecessors, which for a
	// non-empty action set implies a cycle.
	ErrNoEntry = errors.New("no entry action found (cycle in workflow?)")
	// ErrNoLeaves means no action has an empty successor set; a non-empty
	// graph without leaves also implies a cycle.
	ErrNoLeaves = errors.New("no leaf actions found - workflow must have terminal nodes")
	// ErrNoHostCapableServer means no compute server can host long-running
	// VM management actions.
	ErrNoHostCapableServer = errors.New("no host-capable compute server found - VM workflows require one")
)

// AmbiguousEntryError reports that more than one action has zero
// predecessors. The injected start gate chains to exactly one successor, so
// a single entry point is a hard structural requirement.
type AmbiguousEntryError struct {
	Candidates []string
}

func (e *AmbiguousEntryError) Error() string {
	return fmt.Sprintf("multiple entry actions found: %s; workflow must have a single entry point",
		strings.Join(e.Candidates, ", "))
}

// hostCapableTypes are the platform tags that support self-hosted,
// long-running execution and can therefore run vm_start/vm_poll/vm_stop.
var hostCapableTypes = map[string]bool{
	"GitHubActions": true,
}

// EntryPoint returns the single action with no predecessors. Each distinct
// successor target of an action counts once, even when several conditional
// branches name it.
func EntryPoint(w *workflow.Workflow) (string, error) {
	names := w.ActionNames()
	predecessors := make(map[string]int, len(names))
	for _, name := range names {
		predecessors[name] = 0
	}
	for _, name := range names {
		a, _ := w.Action(name)
		for _, target := range a.Next.Targets() {
			if _, ok := predecessors[target]; ok {
				predecessors[target]++
			}
		}
	}

	var entries []string
	for _, name := range names {
		if predecessors[name] == 0 {
			entries = append(entries, name)
		}
	}
	switch len(entries) {
	case 0:
		return "", ErrNoEntry
	case 1:
		return entries[0], nil
	default:
		return "", &AmbiguousEntryError{Candidates: entries}
	}
}

// Leaves returns every action with an empty successor set, in document
// order.
func Leaves(w *workflow.Workflow) ([]string, error) {
	var leaves []string
	for _, name := range w.ActionNames() {
		a, _ := w.Action(name)
		if a.Next.IsEmpty() {
			leaves = append(leaves, name)
		}
	}
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}
	return leaves, nil
}

// VMActions returns the names of actions with RequiresVM set, in document
// order. The order is what makes repeated injection runs deterministic.
func VMActions(w *workflow.Workflow) []string {
	var out []string
	for _, name := range w.ActionNames() {
		a, _ := w.Action(name)
		if a.RequiresVM {
			out = append(out, name)
		}
	}
	return out
}

// HostCapableServer returns the first compute server whose platform can host
// the synthetic VM management actions.
func HostCapableServer(w *workflow.Workflow) (string, error) {
	for _, name := range w.ServerNames() {
		s, _ := w.Server(name)
		if hostCapableTypes[s.FaaSType] {
			return name, nil
		}
	}
	return "", ErrNoHostCapableServer
}

// ContainerForServer returns a container image already used by some action
// bound to the given server. Absence is not an error; callers proceed
// without a container reference.
func ContainerForServer(w *workflow.Workflow, server string) (string, bool) {
	for _, name := range w.ActionNames() {
		a, _ := w.Action(name)
		if a.Server != server {
			continue
		}
		if image, ok := w.Container(name); ok && image != "" {
			return image, true
		}
	}
	return "", false
}
