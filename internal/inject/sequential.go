package inject

import (
	"context"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

// Sequential applies the blocking strategy: one start gate in front of the
// whole graph, one stop after all leaves. vm_start does not return until the
// VM is ready, so nothing downstream runs before then. Simple to reason
// about, pays the full startup latency.
func Sequential(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	if !NeedsVMOrchestration(w) {
		logger.Info("Workflow does not require VM - no injection needed.")
		return w.Clone()
	}
	if err := checkPreconditions(w); err != nil {
		return nil, err
	}

	logger.Info("Applying sequential strategy: start and wait, then execute.")

	out, err := w.Clone()
	if err != nil {
		return nil, err
	}
	r, err := resolve(ctx, out)
	if err != nil {
		return nil, err
	}

	if err := insertStartStop(out, r); err != nil {
		return nil, err
	}
	if err := redirectLeaves(ctx, out, r); err != nil {
		return nil, err
	}

	logger.Info("VM actions injected.", "strategy", StrategySequential, "entry", StartName)
	return out, nil
}
