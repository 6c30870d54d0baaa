package inject

import (
	"context"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/topology"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

// Parallel applies the non-blocking strategy: vm_start fires and forgets,
// and every VM-requiring action gets its own poll gate inserted immediately
// in front of it. Actions that don't need the VM overlap with its startup;
// the price is more synthetic nodes and edge rewiring.
func Parallel(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	if !NeedsVMOrchestration(w) {
		logger.Info("Workflow does not require VM - no injection needed.")
		return w.Clone()
	}
	if err := checkPreconditions(w); err != nil {
		return nil, err
	}

	logger.Info("Applying parallel strategy: start fires, poll before each VM action.")

	out, err := w.Clone()
	if err != nil {
		return nil, err
	}
	r, err := resolve(ctx, out)
	if err != nil {
		return nil, err
	}

	// The VM-requiring set is fixed before anything synthetic exists; its
	// document order is what keeps repeated runs deterministic.
	vmActions := topology.VMActions(out)
	logger.Debug("VM-requiring actions found.", "count", len(vmActions), "actions", vmActions)

	if err := insertStartStop(out, r); err != nil {
		return nil, err
	}

	for _, vmAction := range vmActions {
		if err := insertPollGate(ctx, out, r, vmAction); err != nil {
			return nil, err
		}
	}

	// Leaves go to stop last, so a VM-requiring leaf keeps the chain
	// predecessor -> poll -> leaf -> stop.
	if err := redirectLeaves(ctx, out, r); err != nil {
		return nil, err
	}

	logger.Info("VM actions injected.", "strategy", StrategyParallel,
		"entry", StartName, "poll_gates", len(vmActions))
	return out, nil
}

// insertPollGate creates the poll action for one VM-requiring action and
// redirects every edge in the graph that targets it - across all successor
// shapes and all predecessors - to the gate. Redirection completes for one
// VM action before the next is processed, so chains of VM-requiring actions
// end up gated at every hop.
func insertPollGate(ctx context.Context, w *workflow.Workflow, r *resolved, vmAction string) error {
	logger := ctxlog.FromContext(ctx)

	pollName := PollName(vmAction)
	if err := w.AddAction(pollName, newPollAction(r.server, vmAction)); err != nil {
		return err
	}
	if r.hasContainer {
		w.SetContainer(pollName, r.container)
	}

	for _, name := range w.ActionNames() {
		if name == pollName {
			continue
		}
		a, _ := w.Action(name)
		if next, changed := a.Next.Redirect(vmAction, pollName); changed {
			a.Next = next
			logger.Debug("Edge redirected through poll gate.",
				"from", name, "vm_action", vmAction, "poll", pollName)
		}
	}
	return nil
}
