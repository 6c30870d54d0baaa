// Package invoke triggers a registered workflow's entry point through the
// GitHub Actions API (workflow_dispatch on the entry action's generated
// workflow file).
package invoke

import (
	"context"
	"errors"
	"fmt"

	"resty.dev/v3"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/timer"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

const defaultBaseURL = "https://api.github.com"

// ErrMissingToken means no API token was provided; dispatching requires one.
var ErrMissingToken = errors.New("GH_PAT must be set for GitHub Actions invocation")

// Options locates the repository hosting the workflow and authenticates the
// dispatch call.
type Options struct {
	// Repository is the owner/name pair, e.g. "acme/pipelines".
	Repository string
	// Ref is the branch or tag to dispatch on.
	Ref string
	// Token is a GitHub token with workflow dispatch permission.
	Token string
	// BaseURL overrides the API endpoint; tests point it at a local server.
	BaseURL string
}

// Trigger dispatches the workflow's entry action on GitHub Actions.
func Trigger(ctx context.Context, w *workflow.Workflow, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	if opts.Token == "" {
		return ErrMissingToken
	}
	if opts.Repository == "" {
		return errors.New("repository not set (flag, settings, or GITHUB_REPOSITORY)")
	}
	ref := opts.Ref
	if ref == "" {
		ref = "main"
	}

	// The timer package owns the entry-action validation and the action to
	// workflow-file naming rule; dispatching targets the same file.
	target, err := timer.ResolveTarget(w)
	if err != nil {
		return err
	}
	workflowFile := timer.WorkflowFileName(target.Entry)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(opts.Token).
		SetHeader("Accept", "application/vnd.github+json")
	defer client.Close()

	logger.Info("Dispatching workflow.",
		"repository", opts.Repository, "workflow", workflowFile, "ref", ref)

	res, err := client.R().
		SetContext(ctx).
		SetRawPathParam("repo", opts.Repository).
		SetPathParam("workflow", workflowFile).
		SetBody(map[string]any{"ref": ref}).
		Post("/repos/{repo}/actions/workflows/{workflow}/dispatches")
	if err != nil {
		return fmt.Errorf("dispatching workflow: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("dispatch rejected: %s: %s", res.Status(), res.String())
	}

	logger.Info("Workflow dispatched.", "entry", target.Entry, "status", res.Status())
	return nil
}
