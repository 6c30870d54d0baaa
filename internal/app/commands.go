package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/gitrepo"
	"github.com/faasr/faasr-vm-tools/internal/inject"
	"github.com/faasr/faasr-vm-tools/internal/invoke"
	"github.com/faasr/faasr-vm-tools/internal/timer"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

// runInject loads the document, applies the selected strategy, and writes
// the augmented document. Workflows that don't need VM orchestration are
// written through unchanged.
func (a *App) runInject(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	strategy := a.config.Strategy
	if strategy == "" {
		strategy = a.settings.Inject.Strategy
	}
	injector, err := inject.ForStrategy(strategy)
	if err != nil {
		return err
	}

	w, err := workflow.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return err
	}

	out, err := injector(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to inject VM actions: %w", err)
	}

	outputPath := a.config.OutputPath
	if outputPath == "" {
		outputPath = augmentedPath(a.config.WorkflowPath, a.settings.Inject.OutputSuffix)
	}
	if err := workflow.Save(ctx, out, outputPath); err != nil {
		return err
	}

	logger.Info("Workflow augmented with VM orchestration.",
		"strategy", strategy,
		"input", a.config.WorkflowPath,
		"output", outputPath)
	return nil
}

// augmentedPath derives the default output path: workflow.json ->
// workflow_augmented.json.
func augmentedPath(workflowPath, suffix string) string {
	ext := filepath.Ext(workflowPath)
	stem := strings.TrimSuffix(workflowPath, ext)
	return stem + suffix + ext
}

func (a *App) runTimerSet(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	cronExpr := a.config.Cron
	if cronExpr == "" {
		cronExpr = a.settings.Timer.Cron
	}
	if cronExpr == "" {
		return errors.New("--cron is required (or set timer.cron in the settings file)")
	}

	nextRun, err := timer.ValidateCron(cronExpr)
	if err != nil {
		return err
	}
	logger.Info("Cron expression validated.", "cron", cronExpr, "next_run", nextRun.Format("2006-01-02 15:04:05"))

	w, err := workflow.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return err
	}
	target, err := timer.ResolveTarget(w)
	if err != nil {
		return err
	}

	changed, err := timer.Set(ctx, target.YAMLPath, cronExpr)
	if err != nil {
		return err
	}
	if !changed {
		logger.Info("No changes detected, timer may already be set to this schedule.")
		return nil
	}

	if a.pushEnabled() {
		message := fmt.Sprintf("FaaSr: Set workflow timer to '%s' for %s", cronExpr, timer.WorkflowFileName(target.Entry))
		if err := gitrepo.CommitAndPush(ctx, target.YAMLPath, message, target.Branch); err != nil {
			return err
		}
	}

	logger.Info("Timer configuration complete.", "entry", target.Entry, "cron", cronExpr)
	return nil
}

func (a *App) runTimerUnset(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	w, err := workflow.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return err
	}
	target, err := timer.ResolveTarget(w)
	if err != nil {
		return err
	}

	hadSchedule, err := timer.Unset(ctx, target.YAMLPath)
	if err != nil {
		return err
	}
	if !hadSchedule {
		return nil
	}

	if a.pushEnabled() {
		message := fmt.Sprintf("FaaSr: Unset workflow timer for %s", timer.WorkflowFileName(target.Entry))
		if err := gitrepo.CommitAndPush(ctx, target.YAMLPath, message, target.Branch); err != nil {
			return err
		}
	}

	logger.Info("Timer removed.", "entry", target.Entry)
	return nil
}

func (a *App) runInvoke(ctx context.Context) error {
	w, err := workflow.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return err
	}

	repository := a.config.Repository
	if repository == "" {
		repository = a.settings.GitHub.Repository
	}
	if repository == "" {
		repository = os.Getenv("GITHUB_REPOSITORY")
	}
	ref := a.config.Ref
	if ref == "" {
		ref = a.settings.GitHub.Ref
	}
	if ref == "" {
		ref = os.Getenv("GITHUB_REF_NAME")
	}

	return invoke.Trigger(ctx, w, invoke.Options{
		Repository: repository,
		Ref:        ref,
		Token:      os.Getenv("GH_PAT"),
	})
}

// pushEnabled resolves the --push flag against the settings default.
func (a *App) pushEnabled() bool {
	if a.config.PushSet {
		return a.config.Push
	}
	if a.settings.Timer.Push != nil {
		return *a.settings.Timer.Push
	}
	return false
}
