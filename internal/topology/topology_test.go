package topology

import (
	"encoding/json"
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

func TestEntryPoint(t *testing.T) {
	t.Run("diamond has a single entry", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": ["b","c"]},
            "b": {"InvokeNext": ["d"]},
            "c": {"InvokeNext": ["d"]},
            "d": {"InvokeNext": []}
        }}`)
		entry, err := EntryPoint(w)
		require.NoError(t, err)
		assert.Equal(t, "a", entry)
	})

	t.Run("conditional branches count a target once", func(t *testing.T) {
		// a names b in two branches; b still has exactly one predecessor,
		// so a remains the single zero-predecessor action.
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": {"ok": "b", "fail": ["b"]}},
            "b": {"InvokeNext": []}
        }}`)
		entry, err := EntryPoint(w)
		require.NoError(t, err)
		assert.Equal(t, "a", entry)
	})

	t.Run("cycle yields no entry", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": ["b"]},
            "b": {"InvokeNext": ["a"]}
        }}`)
		_, err := EntryPoint(w)
		assert.ErrorIs(t, err, ErrNoEntry)
	})

	t.Run("two roots are ambiguous", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": ["c"]},
            "b": {"InvokeNext": ["c"]},
            "c": {"InvokeNext": []}
        }}`)
		_, err := EntryPoint(w)
		var ambiguous *AmbiguousEntryError
		require.ErrorAs(t, err, &ambiguous)
		assert.ElementsMatch(t, []string{"a", "b"}, ambiguous.Candidates)
	})

	t.Run("empty graph yields no entry", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {}}`)
		_, err := EntryPoint(w)
		assert.ErrorIs(t, err, ErrNoEntry)
	})
}

func TestLeaves(t *testing.T) {
	t.Run("returns all terminals in document order", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": ["b","c"]},
            "b": {"InvokeNext": []},
            "c": {}
        }}`)
		leaves, err := Leaves(w)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, leaves)
	})

	t.Run("cycle yields no leaves", func(t *testing.T) {
		w := mustParse(t, `{"ActionList": {
            "a": {"InvokeNext": ["b"]},
            "b": {"InvokeNext": ["a"]}
        }}`)
		_, err := Leaves(w)
		assert.ErrorIs(t, err, ErrNoLeaves)
	})
}

func TestVMActionsStableOrder(t *testing.T) {
	w := mustParse(t, `{"ActionList": {
        "c": {"RequiresVM": true, "InvokeNext": ["a"]},
        "a": {"RequiresVM": false, "InvokeNext": ["b"]},
        "b": {"RequiresVM": true, "InvokeNext": []}
    }}`)
	assert.Equal(t, []string{"c", "b"}, VMActions(w))
}

func TestHostCapableServer(t *testing.T) {
	t.Run("finds github actions server", func(t *testing.T) {
		w := mustParse(t, `{"ComputeServers": {
            "aws": {"FaaSType": "Lambda"},
            "gh": {"FaaSType": "GitHubActions"}
        }, "ActionList": {}}`)
		server, err := HostCapableServer(w)
		require.NoError(t, err)
		assert.Equal(t, "gh", server)
	})

	t.Run("errors when none exists", func(t *testing.T) {
		w := mustParse(t, `{"ComputeServers": {
            "aws": {"FaaSType": "Lambda"}
        }, "ActionList": {}}`)
		_, err := HostCapableServer(w)
		assert.ErrorIs(t, err, ErrNoHostCapableServer)
	})
}

func TestContainerForServer(t *testing.T) {
	w := mustParse(t, `{
        "ActionList": {
            "a": {"FaaSServer": "aws", "InvokeNext": ["b"]},
            "b": {"FaaSServer": "gh", "InvokeNext": []},
            "c": {"FaaSServer": "gh", "InvokeNext": []}
        },
        "ActionContainers": {"a": "aws-img", "c": "gh-img"}
    }`)

	image, ok := ContainerForServer(w, "gh")
	require.True(t, ok)
	assert.Equal(t, "gh-img", image)

	_, ok = ContainerForServer(w, "azure")
	assert.False(t, ok)
}
