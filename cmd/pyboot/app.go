// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/pyboot/pyboot/internal/app/bootstrap"
	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/launcher"
	"github.com/pyboot/pyboot/internal/logging"
	"github.com/pyboot/pyboot/internal/runtime"

	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and delegate
	// to the bootstrap pipeline through it.
	App struct {
		Config ConfigProvider
		Runner runtime.Runner
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// verbose mirrors the loaded ui.verbose so the error handler, which
		// runs after the command returns, can honor it.
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Runner runtime.Runner
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// session is the per-invocation state built from the loaded configuration.
	session struct {
		cfg      *config.Config
		logger   *logging.Logger
		pipeline *bootstrap.Pipeline
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = runtime.NewHostRunner()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	return &App{
		Config: deps.Config,
		Runner: deps.Runner,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig resolves configuration for cmd from --config, the environment
// and the command's changed flags.
func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		a.verbose = true
	}

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: cfgPath,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	a.verbose = cfg.UI.Verbose
	return cfg, nil
}

// newSession loads configuration and builds the logger and pipeline for cmd.
// Callers must Close the session.
func (a *App) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Writer:  a.stderr,
		Verbose: cfg.UI.Verbose,
		LogFile: cfg.UI.LogFile,
	})
	if err != nil {
		return nil, err
	}

	pipeline := bootstrap.New(bootstrap.Options{
		Config: cfg,
		Runner: a.Runner,
		Logger: logger.Logger,
		IO: launcher.IO{
			Stdin:  a.stdin,
			Stdout: a.stdout,
			Stderr: a.stderr,
		},
	})

	return &session{cfg: cfg, logger: logger, pipeline: pipeline}, nil
}

// Close releases the session's log file.
func (s *session) Close() error {
	return s.logger.Close()
}
