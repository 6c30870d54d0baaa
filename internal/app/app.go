// Package app wires configuration, logging, and the engine together and
// runs one command to completion.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
	"github.com/faasr/faasr-vm-tools/internal/settings"
)

// defaultSettingsFile is picked up when present and no --settings was given.
const defaultSettingsFile = "faasr.hcl"

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *settings.Settings
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and settings.
func NewApp(outW io.Writer, config *Config) (*App, error) {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	sts, err := loadSettings(ctx, config.SettingsPath)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		settings: sts,
	}, nil
}

// loadSettings reads the explicit settings file, or the default one if it
// exists, or falls back to built-in defaults.
func loadSettings(ctx context.Context, path string) (*settings.Settings, error) {
	if path != "" {
		return settings.Load(ctx, path)
	}
	if _, err := os.Stat(defaultSettingsFile); err == nil {
		return settings.Load(ctx, defaultSettingsFile)
	}
	return settings.Default(), nil
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CommandInject:
		err = a.runInject(ctx)
	case CommandTimerSet:
		err = a.runTimerSet(ctx)
	case CommandTimerUnset:
		err = a.runTimerUnset(ctx)
	case CommandInvoke:
		err = a.runInvoke(ctx)
	}

	a.logger.Debug("App.Run method finished.")
	return err
}
