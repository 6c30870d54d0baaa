// Package timer sets and clears the cron schedule of a registered workflow's
// GitHub Actions entry point. The schedule lives in the entry action's
// generated YAML under .github/workflows/; this package edits that file in
// place without disturbing its other triggers or its key order.
package timer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

// ErrNotGitHubActions means the entry action's server is not GitHub Actions;
// timers are only supported there.
var ErrNotGitHubActions = errors.New("timer setting is only supported for GitHub Actions entry points")

// NotRegisteredError means the entry action has no generated workflow YAML
// yet; the workflow must be registered before a timer can be set.
type NotRegisteredError struct {
	Path string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("workflow YAML not found: %s (register the workflow first)", e.Path)
}

// Target identifies the YAML file a timer operation edits.
type Target struct {
	Entry    string
	YAMLPath string
	Branch   string
}

// ValidateCron parses a standard 5-field cron expression and returns the
// next time it would fire.
func ValidateCron(expr string) (time.Time, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule.Next(time.Now()), nil
}

// WorkflowFileName maps an entry action name to its generated workflow file
// name.
func WorkflowFileName(entry string) string {
	if strings.HasSuffix(entry, ".yml") || strings.HasSuffix(entry, ".yaml") {
		return entry
	}
	return entry + ".yml"
}

// ResolveTarget validates that the workflow's entry action is hosted on
// GitHub Actions and returns the YAML file the schedule lives in.
func ResolveTarget(w *workflow.Workflow) (*Target, error) {
	if w.Entry == "" {
		return nil, errors.New("FunctionInvoke not found in workflow document")
	}
	action, ok := w.Action(w.Entry)
	if !ok {
		return nil, fmt.Errorf("entry action %q not found in ActionList", w.Entry)
	}
	server, ok := w.Server(action.Server)
	if !ok {
		return nil, fmt.Errorf("compute server %q not found for entry action %q", action.Server, w.Entry)
	}
	if server.FaaSType != "GitHubActions" {
		return nil, fmt.Errorf("entry action is configured for %s: %w", server.FaaSType, ErrNotGitHubActions)
	}

	branch := server.Branch
	if branch == "" {
		branch = "main"
	}
	return &Target{
		Entry:    w.Entry,
		YAMLPath: path.Join(".github", "workflows", WorkflowFileName(w.Entry)),
		Branch:   branch,
	}, nil
}

// Set writes the cron schedule into the target YAML. It reports whether the
// file content changed (an identical schedule is a no-op the caller should
// not commit).
func Set(ctx context.Context, yamlPath, cronExpr string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	original, err := readRegistered(yamlPath)
	if err != nil {
		return false, err
	}

	updated, hadSchedule, err := setSchedule(original, cronExpr)
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", yamlPath, err)
	}
	if hadSchedule {
		logger.Info("Updated cron schedule.", "cron", cronExpr, "path", yamlPath)
	} else {
		logger.Info("Added cron schedule.", "cron", cronExpr, "path", yamlPath)
	}

	if string(updated) == string(original) {
		return false, nil
	}
	if err := os.WriteFile(yamlPath, updated, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", yamlPath, err)
	}
	return true, nil
}

// Unset removes the schedule trigger from the target YAML. It reports
// whether a schedule was present.
func Unset(ctx context.Context, yamlPath string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	original, err := readRegistered(yamlPath)
	if err != nil {
		return false, err
	}

	updated, hadSchedule, err := unsetSchedule(original)
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", yamlPath, err)
	}
	if !hadSchedule {
		logger.Info("No cron schedule present, nothing to remove.", "path", yamlPath)
		return false, nil
	}

	if err := os.WriteFile(yamlPath, updated, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", yamlPath, err)
	}
	logger.Info("Removed cron schedule.", "path", yamlPath)
	return true, nil
}

func readRegistered(yamlPath string) ([]byte, error) {
	data, err := os.ReadFile(yamlPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotRegisteredError{Path: yamlPath}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", yamlPath, err)
	}
	return data, nil
}
