package app

import (
	"errors"
)

// Commands the tool understands.
const (
	CommandInject     = "inject"
	CommandTimerSet   = "timer-set"
	CommandTimerUnset = "timer-unset"
	CommandInvoke     = "invoke"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command      string
	WorkflowPath string
	SettingsPath string

	// inject
	OutputPath string
	Strategy   string

	// timer-set / timer-unset
	Cron    string
	Push    bool
	PushSet bool // whether --push was given, so settings can fill the gap

	// invoke
	Repository string
	Ref        string

	LogFormat string
	LogLevel  string
}

// NewConfig validates the cross-field requirements flags can't express.
// A missing --cron is not rejected here: it may still come from the
// settings file, which is only read at run time.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		return nil, errors.New("Command is a required configuration field and cannot be empty")
	}
	if cfg.WorkflowPath == "" {
		return nil, errors.New("--workflow is required")
	}
	if cfg.Command == CommandInject && cfg.OutputPath != "" && cfg.OutputPath == cfg.WorkflowPath {
		return nil, errors.New("--output must differ from --workflow")
	}
	return &cfg, nil
}
