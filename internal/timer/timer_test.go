package timer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faasr/faasr-vm-tools/internal/workflow"
)

func mustParse(t *testing.T, src string) *workflow.Workflow {
	t.Helper()
	var w workflow.Workflow
	require.NoError(t, json.Unmarshal([]byte(src), &w))
	return &w
}

func TestValidateCron(t *testing.T) {
	next, err := ValidateCron("*/5 * * * *")
	require.NoError(t, err)
	assert.False(t, next.IsZero())

	_, err = ValidateCron("not a cron")
	assert.Error(t, err)

	_, err = ValidateCron("61 * * * *")
	assert.Error(t, err)
}

func TestWorkflowFileName(t *testing.T) {
	assert.Equal(t, "train.yml", WorkflowFileName("train"))
	assert.Equal(t, "train.yml", WorkflowFileName("train.yml"))
	assert.Equal(t, "train.yaml", WorkflowFileName("train.yaml"))
}

func TestResolveTarget(t *testing.T) {
	t.Run("github actions entry", func(t *testing.T) {
		w := mustParse(t, `{
            "FunctionInvoke": "fetch",
            "ComputeServers": {"gh": {"FaaSType": "GitHubActions", "Branch": "develop"}},
            "ActionList": {"fetch": {"FaaSServer": "gh", "InvokeNext": []}}
        }`)
		target, err := ResolveTarget(w)
		require.NoError(t, err)
		assert.Equal(t, "fetch", target.Entry)
		assert.Equal(t, ".github/workflows/fetch.yml", target.YAMLPath)
		assert.Equal(t, "develop", target.Branch)
	})

	t.Run("branch defaults to main", func(t *testing.T) {
		w := mustParse(t, `{
            "FunctionInvoke": "fetch",
            "ComputeServers": {"gh": {"FaaSType": "GitHubActions"}},
            "ActionList": {"fetch": {"FaaSServer": "gh", "InvokeNext": []}}
        }`)
		target, err := ResolveTarget(w)
		require.NoError(t, err)
		assert.Equal(t, "main", target.Branch)
	})

	t.Run("non-github entry is rejected", func(t *testing.T) {
		w := mustParse(t, `{
            "FunctionInvoke": "fetch",
            "ComputeServers": {"aws": {"FaaSType": "Lambda"}},
            "ActionList": {"fetch": {"FaaSServer": "aws", "InvokeNext": []}}
        }`)
		_, err := ResolveTarget(w)
		assert.ErrorIs(t, err, ErrNotGitHubActions)
	})

	t.Run("missing entry action", func(t *testing.T) {
		w := mustParse(t, `{
            "FunctionInvoke": "ghost",
            "ActionList": {"fetch": {"InvokeNext": []}}
        }`)
		_, err := ResolveTarget(w)
		assert.Error(t, err)
	})
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entry.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSet(t *testing.T) {
	ctx := context.Background()

	t.Run("adds schedule to existing triggers", func(t *testing.T) {
		path := writeYAML(t, "name: entry\n\"on\":\n  workflow_dispatch: null\njobs: {}\n")

		changed, err := Set(ctx, path, "0 2 * * *")
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "workflow_dispatch:")
		assert.Contains(t, string(data), "schedule:")
		assert.Contains(t, string(data), "cron: 0 2 * * *")
	})

	t.Run("normalizes a bare scalar trigger", func(t *testing.T) {
		path := writeYAML(t, "name: entry\n\"on\": push\n")

		changed, err := Set(ctx, path, "0 2 * * *")
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "push:")
		assert.Contains(t, string(data), "schedule:")
	})

	t.Run("identical schedule is a no-op", func(t *testing.T) {
		path := writeYAML(t, "name: entry\n\"on\":\n  workflow_dispatch: null\n")

		changed, err := Set(ctx, path, "0 2 * * *")
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = Set(ctx, path, "0 2 * * *")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("replaces an existing schedule", func(t *testing.T) {
		path := writeYAML(t, "\"on\":\n  schedule:\n    - cron: 0 1 * * *\n")

		changed, err := Set(ctx, path, "*/10 * * * *")
		require.NoError(t, err)
		assert.True(t, changed)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "cron: '*/10 * * * *'")
		assert.NotContains(t, string(data), "0 1 * * *")
	})

	t.Run("missing file means unregistered", func(t *testing.T) {
		_, err := Set(ctx, filepath.Join(t.TempDir(), "missing.yml"), "0 2 * * *")
		var notRegistered *NotRegisteredError
		assert.ErrorAs(t, err, &notRegistered)
	})
}

func TestUnset(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the schedule and keeps other triggers", func(t *testing.T) {
		path := writeYAML(t, "\"on\":\n  workflow_dispatch: null\n  schedule:\n    - cron: 0 1 * * *\njobs: {}\n")

		had, err := Unset(ctx, path)
		require.NoError(t, err)
		assert.True(t, had)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "schedule:")
		assert.Contains(t, string(data), "workflow_dispatch:")
		assert.Contains(t, string(data), "jobs:")
	})

	t.Run("reports absent schedule without rewriting", func(t *testing.T) {
		const content = "\"on\":\n  workflow_dispatch: null\n"
		path := writeYAML(t, content)

		had, err := Unset(ctx, path)
		require.NoError(t, err)
		assert.False(t, had)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})
}
