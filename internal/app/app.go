// Package app wires the application together: logger construction, run
// configuration loading, CLI overrides, and the submission run itself.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/runconfig"
	"github.com/vk/toygrid/internal/submit"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	runCfg  *runconfig.Config
	planner submit.Planner
}

// NewApp is the constructor for the main application. It loads the run
// configuration, applies CLI overrides, and returns a fully initialized App
// with its own isolated logger. An optional planner can be injected for
// testing; by default the external planner CLI is used.
func NewApp(outW io.Writer, appConfig *Config, planner submit.Planner) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	runCfg, err := runconfig.Load(ctx, appConfig.RunConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load run configuration: %w", err)
	}
	applyOverrides(runCfg.Settings, appConfig)
	logger.Debug("Run configuration loaded.",
		"path", appConfig.RunConfigPath,
		"tickets", len(runCfg.Tickets),
		"debug", runCfg.Settings.Debug)

	if planner == nil {
		planner = &submit.CLIPlanner{}
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		runCfg:  runCfg,
		planner: planner,
	}, nil
}

// applyOverrides folds CLI flags into the settings block; flags win over
// the file.
func applyOverrides(s *runconfig.Settings, c *Config) {
	if c.WorkflowID != "" {
		s.WorkflowID = c.WorkflowID
	}
	if c.Computation != "" {
		s.Computation = c.Computation
	}
	if c.Workdir != "" {
		s.Workdir = c.Workdir
	}
	if c.Debug {
		s.Debug = true
	}
}

// Run executes one submission.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	driver := submit.NewDriver(a.runCfg, a.config.RunConfigPath, a.planner, nil)
	if err := driver.Submit(ctx); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
