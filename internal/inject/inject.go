// Package inject rewrites a workflow graph so that VM lifecycle management
// happens inside the graph itself: a synthetic start action brings the VM
// up, VM-requiring actions are gated on its readiness, and a synthetic stop
// action tears it down once every execution path has finished.
//
// Two strategies are provided. Sequential puts a single blocking start gate
// in front of the whole graph. Parallel fires the start without waiting and
// places a poll gate immediately before each VM-requiring action, letting
// everything else overlap with VM startup.
//
// Injection never mutates its input: each call clones the workflow, rewires
// the clone, and returns it, so a failed call cannot leave a
// partially-transformed document behind.
package inject

import (
	"context"
	"errors"
	"fmt"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/topology"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

var (
	// ErrMissingVMConfig means VM-requiring actions exist but the document
	// declares no VMConfig block.
	ErrMissingVMConfig = errors.New("VMConfig required for VM workflows")
	// ErrNoVMActions means the document declares VMConfig but no action
	// requires the VM.
	ErrNoVMActions = errors.New("VMConfig declared but no action has RequiresVM set")
	// ErrUnknownStrategy is returned by ForStrategy for names it does not
	// recognize.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Func is an injection strategy: it takes a workflow and returns a new,
// fully transformed one.
type Func func(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error)

// Strategy names accepted by ForStrategy.
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// ForStrategy maps a strategy name to its injector.
func ForStrategy(name string) (Func, error) {
	switch name {
	case StrategySequential:
		return Sequential, nil
	case StrategyParallel:
		return Parallel, nil
	}
	return nil, fmt.Errorf("%w: %q (use %q or %q)", ErrUnknownStrategy, name, StrategySequential, StrategyParallel)
}

// NeedsVMOrchestration reports whether the workflow is involved with VM
// orchestration at all, via VM-requiring actions or a VMConfig block. When
// false, both injectors are a no-op.
func NeedsVMOrchestration(w *workflow.Workflow) bool {
	return w.HasVMActions() || w.HasVMConfig()
}

// checkPreconditions rejects half-configured workflows: VM actions without
// VMConfig, or VMConfig without VM actions.
func checkPreconditions(w *workflow.Workflow) error {
	hasActions := w.HasVMActions()
	hasConfig := w.HasVMConfig()
	switch {
	case hasActions && !hasConfig:
		return ErrMissingVMConfig
	case hasConfig && !hasActions:
		return ErrNoVMActions
	}
	return nil
}

// resolved holds the topology facts both strategies need. It is computed up
// front, before any synthetic action exists, so the stop action never counts
// as a leaf of the original graph.
type resolved struct {
	entry        string
	leaves       []string
	server       string
	container    string
	hasContainer bool
}

func resolve(ctx context.Context, w *workflow.Workflow) (*resolved, error) {
	logger := ctxlog.FromContext(ctx)

	entry, err := topology.EntryPoint(w)
	if err != nil {
		return nil, err
	}
	leaves, err := topology.Leaves(w)
	if err != nil {
		return nil, err
	}
	server, err := topology.HostCapableServer(w)
	if err != nil {
		return nil, err
	}
	container, hasContainer := topology.ContainerForServer(w, server)

	logger.Debug("Workflow topology resolved.",
		"entry", entry, "leaves", leaves, "server", server, "container", container)

	return &resolved{
		entry:        entry,
		leaves:       leaves,
		server:       server,
		container:    container,
		hasContainer: hasContainer,
	}, nil
}

// insertStartStop adds the start and stop actions and moves the document's
// entry point to start.
func insertStartStop(w *workflow.Workflow, r *resolved) error {
	// Both names are checked before either insert so a conflict aborts with
	// nothing added.
	for _, name := range []string{StartName, StopName} {
		if w.HasAction(name) {
			return &workflow.NameConflictError{Name: name}
		}
	}
	if err := w.AddAction(StartName, newStartAction(r.server, r.entry)); err != nil {
		return err
	}
	if err := w.AddAction(StopName, newStopAction(r.server)); err != nil {
		return err
	}

	if r.hasContainer {
		w.SetContainer(StartName, r.container)
		w.SetContainer(StopName, r.container)
	}

	w.SetEntry(StartName)
	return nil
}

// redirectLeaves makes the stop action the graph's sole terminal: every
// original leaf's successor set becomes a single edge to stop.
func redirectLeaves(ctx context.Context, w *workflow.Workflow, r *resolved) error {
	logger := ctxlog.FromContext(ctx)
	for _, leaf := range r.leaves {
		if err := w.ReplaceNext(leaf, workflow.NextTo(StopName)); err != nil {
			return err
		}
		logger.Debug("Leaf redirected to VM stop.", "leaf", leaf)
	}
	return nil
}
