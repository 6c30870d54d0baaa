// Package gitrepo shells out to git for the small set of operations the
// timer commands need: detecting whether an edit changed anything and
// committing and pushing it.
package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
)

// HasChanges reports whether the given path differs from the index.
func HasChanges(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--quiet", "--", path)
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git diff failed: %w", err)
}

// CommitAndPush stages the path, commits it with the given message, and
// pushes to origin on the given branch. A path that matches the index is
// skipped without committing.
func CommitAndPush(ctx context.Context, path, message, branch string) error {
	logger := ctxlog.FromContext(ctx)

	changed, err := HasChanges(ctx, path)
	if err != nil {
		return err
	}
	if !changed {
		logger.Info("No changes to commit.", "path", path)
		return nil
	}

	steps := [][]string{
		{"add", path},
		{"commit", "-m", message},
		{"push", "origin", branch},
	}
	for _, args := range steps {
		if out, err := run(ctx, args...); err != nil {
			return fmt.Errorf("git %s failed: %w: %s", args[0], err, out)
		}
	}

	logger.Info("Changes pushed.", "path", path, "branch", branch)
	return nil
}

func run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
