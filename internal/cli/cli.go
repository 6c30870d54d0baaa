// Package cli parses the tool's command line. It knows nothing about the
// engine; it only produces an app.Config or an ExitError with the exit code
// main should use.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/faasr/faasr-vm-tools/internal/app"
	"github.com/faasr/faasr-vm-tools/internal/inject"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `faasr-vm - VM orchestration tooling for FaaSr workflows.

Usage:
  faasr-vm <command> [options]

Commands:
  inject       Inject VM lifecycle actions into a workflow document.
  timer-set    Set a cron schedule on the workflow's entry point.
  timer-unset  Remove the cron schedule from the workflow's entry point.
  invoke       Trigger the workflow's entry point on GitHub Actions.

Common options (every command):
  --workflow PATH    Path to the workflow JSON document (required).
  --settings PATH    Optional HCL settings file (default: faasr.hcl if present).
  --log-format FMT   'text' or 'json' (default: text).
  --log-level LVL    'debug', 'info', 'warn', or 'error' (default: info).

Run 'faasr-vm <command> -h' for command-specific options.
`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usageText)
		return nil, true, nil
	}

	command := args[0]
	switch command {
	case "-h", "--help", "help":
		fmt.Fprint(output, usageText)
		return nil, true, nil
	case app.CommandInject, app.CommandTimerSet, app.CommandTimerUnset, app.CommandInvoke:
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command: %q (run 'faasr-vm --help')", command)}
	}

	flagSet := flag.NewFlagSet("faasr-vm "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)

	workflowFlag := flagSet.String("workflow", "", "Path to the workflow JSON document.")
	settingsFlag := flagSet.String("settings", "", "Path to an HCL settings file.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var outputFlag, strategyFlag, cronFlag, repositoryFlag, refFlag *string
	var pushFlag *bool
	switch command {
	case app.CommandInject:
		outputFlag = flagSet.String("output", "", "Path for the augmented document (default: <workflow>_augmented.json).")
		strategyFlag = flagSet.String("strategy", "", "VM orchestration strategy: 'sequential' or 'parallel'.")
	case app.CommandTimerSet:
		cronFlag = flagSet.String("cron", "", "Cron schedule expression (e.g. '*/5 * * * *').")
		pushFlag = flagSet.Bool("push", false, "Commit and push the schedule change.")
	case app.CommandTimerUnset:
		pushFlag = flagSet.Bool("push", false, "Commit and push the schedule change.")
	case app.CommandInvoke:
		repositoryFlag = flagSet.String("repository", "", "GitHub repository (owner/name). Default: GITHUB_REPOSITORY.")
		refFlag = flagSet.String("ref", "", "Branch or tag to dispatch on. Default: GITHUB_REF_NAME or 'main'.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config := app.Config{
		Command:      command,
		WorkflowPath: *workflowFlag,
		SettingsPath: *settingsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	}
	if outputFlag != nil {
		config.OutputPath = *outputFlag
	}
	if strategyFlag != nil {
		config.Strategy = strings.ToLower(*strategyFlag)
		if config.Strategy != "" && config.Strategy != inject.StrategySequential && config.Strategy != inject.StrategyParallel {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid strategy: %q (use 'sequential' or 'parallel')", config.Strategy)}
		}
	}
	if cronFlag != nil {
		config.Cron = *cronFlag
	}
	if pushFlag != nil {
		config.Push = *pushFlag
		flagSet.Visit(func(f *flag.Flag) {
			if f.Name == "push" {
				config.PushSet = true
			}
		})
	}
	if repositoryFlag != nil {
		config.Repository = *repositoryFlag
	}
	if refFlag != nil {
		config.Ref = *refFlag
	}

	validated, err := app.NewConfig(config)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return validated, false, nil
}
