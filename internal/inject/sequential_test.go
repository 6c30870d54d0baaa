package inject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialInjection(t *testing.T) {
	w := mustParse(t, vmDoc)
	before := encode(t, w)

	out, err := Sequential(context.Background(), w)
	require.NoError(t, err)

	// The input is untouched; the result is a new value.
	assert.Equal(t, before, encode(t, w))

	requireSingleBoundary(t, out, []string{"report"})

	start, ok := out.Action(StartName)
	require.True(t, ok)
	assert.Equal(t, "vm_start", start.FunctionName)
	assert.Equal(t, "gh", start.Server)
	assert.Equal(t, "Python", start.Type)
	assert.False(t, start.RequiresVM)
	assert.True(t, start.Builtin)
	assert.Equal(t, []string{"fetch"}, start.Next.Targets())

	stop, _ := out.Action(StopName)
	assert.Equal(t, "vm_stop", stop.FunctionName)
	assert.False(t, stop.RequiresVM)

	// Only two synthetic nodes; everything between entry and leaves is
	// untouched.
	assert.Equal(t, 5, out.ActionCount())
	fetch, _ := out.Action("fetch")
	assert.Equal(t, []string{"train"}, fetch.Next.Targets())
	train, _ := out.Action("train")
	assert.Equal(t, []string{"report"}, train.Next.Targets())

	// Container propagated onto both synthetic actions.
	img, ok := out.Container(StartName)
	require.True(t, ok)
	assert.Equal(t, "ghcr.io/demo/base:1", img)
	img, ok = out.Container(StopName)
	require.True(t, ok)
	assert.Equal(t, "ghcr.io/demo/base:1", img)
}

func TestSequentialMultipleLeaves(t *testing.T) {
	w := mustParse(t, `{
        "FunctionInvoke": "a",
        "ComputeServers": {"gh": {"FaaSType": "GitHubActions"}},
        "ActionList": {
            "a": {"FaaSServer": "gh", "RequiresVM": true, "InvokeNext": ["b", "c"]},
            "b": {"FaaSServer": "gh", "InvokeNext": []},
            "c": {"FaaSServer": "gh", "InvokeNext": []}
        },
        "VMConfig": {}
    }`)

	out, err := Sequential(context.Background(), w)
	require.NoError(t, err)
	requireSingleBoundary(t, out, []string{"b", "c"})
}

func TestSequentialWithoutContainer(t *testing.T) {
	w := mustParse(t, `{
        "FunctionInvoke": "a",
        "ComputeServers": {"gh": {"FaaSType": "GitHubActions"}},
        "ActionList": {
            "a": {"FaaSServer": "gh", "RequiresVM": true, "InvokeNext": []}
        },
        "VMConfig": {}
    }`)

	out, err := Sequential(context.Background(), w)
	require.NoError(t, err)

	// Absence of a container is propagated, not invented.
	_, ok := out.Container(StartName)
	assert.False(t, ok)
	_, ok = out.Container(StopName)
	assert.False(t, ok)
}
