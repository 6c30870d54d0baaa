package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faasr/faasr-vm-tools/internal/app"
)

func parse(t *testing.T, args ...string) (*app.Config, bool, error) {
	t.Helper()
	var out bytes.Buffer
	return Parse(args, &out)
}

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		var out bytes.Buffer
		cfg, done, err := Parse(args, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, _, err := parse(t, "eject", "--workflow", "wf.json")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "unknown command")
}

func TestParseInject(t *testing.T) {
	cfg, done, err := parse(t, "inject",
		"--workflow", "wf.json",
		"--output", "wf_vm.json",
		"--strategy", "Sequential",
		"--log-level", "DEBUG",
		"--log-format", "json")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, app.CommandInject, cfg.Command)
	assert.Equal(t, "wf.json", cfg.WorkflowPath)
	assert.Equal(t, "wf_vm.json", cfg.OutputPath)
	assert.Equal(t, "sequential", cfg.Strategy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseInjectDefaults(t *testing.T) {
	cfg, _, err := parse(t, "inject", "--workflow", "wf.json")
	require.NoError(t, err)
	assert.Empty(t, cfg.OutputPath)
	assert.Empty(t, cfg.Strategy)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseMissingWorkflow(t *testing.T) {
	_, _, err := parse(t, "inject")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "--workflow is required")
}

func TestParseInvalidStrategy(t *testing.T) {
	_, _, err := parse(t, "inject", "--workflow", "wf.json", "--strategy", "eventual")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid strategy")
}

func TestParseOutputEqualsWorkflow(t *testing.T) {
	_, _, err := parse(t, "inject", "--workflow", "wf.json", "--output", "wf.json")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseInvalidLogFlags(t *testing.T) {
	for _, args := range [][]string{
		{"inject", "--workflow", "wf.json", "--log-format", "xml"},
		{"inject", "--workflow", "wf.json", "--log-level", "trace"},
	} {
		_, _, err := parse(t, args...)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	}
}

func TestParseTimerSet(t *testing.T) {
	t.Run("with push", func(t *testing.T) {
		cfg, _, err := parse(t, "timer-set", "--workflow", "wf.json", "--cron", "0 2 * * *", "--push")
		require.NoError(t, err)
		assert.Equal(t, app.CommandTimerSet, cfg.Command)
		assert.Equal(t, "0 2 * * *", cfg.Cron)
		assert.True(t, cfg.Push)
		assert.True(t, cfg.PushSet)
	})

	t.Run("push unset is distinguishable from push=false", func(t *testing.T) {
		cfg, _, err := parse(t, "timer-set", "--workflow", "wf.json", "--cron", "0 2 * * *")
		require.NoError(t, err)
		assert.False(t, cfg.Push)
		assert.False(t, cfg.PushSet)
	})

	t.Run("missing cron is deferred to run time", func(t *testing.T) {
		cfg, _, err := parse(t, "timer-set", "--workflow", "wf.json")
		require.NoError(t, err)
		assert.Empty(t, cfg.Cron)
	})
}

func TestParseTimerUnset(t *testing.T) {
	cfg, _, err := parse(t, "timer-unset", "--workflow", "wf.json", "--push=false")
	require.NoError(t, err)
	assert.Equal(t, app.CommandTimerUnset, cfg.Command)
	assert.False(t, cfg.Push)
	assert.True(t, cfg.PushSet)
}

func TestParseInvoke(t *testing.T) {
	cfg, _, err := parse(t, "invoke", "--workflow", "wf.json",
		"--repository", "acme/pipelines", "--ref", "develop")
	require.NoError(t, err)
	assert.Equal(t, app.CommandInvoke, cfg.Command)
	assert.Equal(t, "acme/pipelines", cfg.Repository)
	assert.Equal(t, "develop", cfg.Ref)
}

func TestParseUnknownFlag(t *testing.T) {
	_, _, err := parse(t, "inject", "--workflow", "wf.json", "--bogus")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
