// SPDX-License-Identifier: MPL-2.0

// Package launcher runs the project's entry point inside an activated
// virtual environment and reports the program's exit status.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pyboot/pyboot/internal/issue"
	"github.com/pyboot/pyboot/internal/runtime"
	"github.com/pyboot/pyboot/internal/venv"
)

var (
	// ErrEntryPointNotFound is returned when the program to launch is missing.
	ErrEntryPointNotFound = errors.New("entry point not found")
	// ErrLaunchFailed is returned when the program cannot be started.
	ErrLaunchFailed = errors.New("failed to launch program")
)

type (
	// IO holds the streams handed to the launched program.
	IO struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Launcher starts entry points with the environment's interpreter.
	Launcher struct {
		runner runtime.Runner
		logger *slog.Logger
		io     IO
		// baseEnv returns the environment activation starts from.
		baseEnv func() map[string]string
	}
)

// New creates a Launcher whose programs inherit streams.
func New(runner runtime.Runner, logger *slog.Logger, streams IO) *Launcher {
	return &Launcher{runner: runner, logger: logger, io: streams, baseEnv: runtime.HostEnv}
}

// Launch runs `<venv python> entryPoint args...` with the activated
// environment and waits for it. The returned code is the program's exit
// status; err is set only when the program could not run at all.
func (l *Launcher) Launch(ctx context.Context, layout venv.Layout, entryPoint string, args []string) (runtime.ExitCode, error) {
	if info, err := os.Stat(entryPoint); err != nil || info.IsDir() {
		return 1, issue.NewErrorContext().
			WithOperation("launch program").
			WithResource(entryPoint).
			WithSuggestion("Run pyboot from the project directory").
			WithSuggestion("Set PYBOOT_ENTRY_POINT or --entry-point to the program to run").
			Wrap(fmt.Errorf("%w: %s", ErrEntryPointNotFound, entryPoint)).
			BuildError()
	}

	env, err := venv.Activate(ctx, layout, l.baseEnv())
	if err != nil {
		return 1, launchError(layout, err, "Recreate the environment by removing "+layout.Dir())
	}

	python, err := filepath.Abs(layout.Python())
	if err != nil {
		return 1, launchError(layout, err)
	}
	if _, err := os.Stat(python); err != nil {
		return 1, launchError(layout, fmt.Errorf("environment interpreter missing: %w", err),
			"Remove "+layout.Dir()+" so it is recreated on the next run")
	}

	cmd := runtime.Command{
		Path:           python,
		Args:           append([]string{entryPoint}, args...),
		Env:            runtime.EnvToSlice(env),
		Stdin:          l.io.Stdin,
		Stdout:         l.io.Stdout,
		Stderr:         l.io.Stderr,
		ForwardSignals: true,
	}
	l.logger.Debug("launching", "command", cmd.String(), "virtual_env", env[venv.VirtualEnvVar])

	res := l.runner.Run(ctx, cmd)
	if res.Error != nil {
		return res.ExitCode, launchError(layout, res.Error)
	}
	if !res.ExitCode.IsSuccess() {
		l.logger.Debug("program exited", "code", int(res.ExitCode))
	}
	return res.ExitCode, nil
}

func launchError(layout venv.Layout, cause error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("launch program").
		WithResource(layout.Dir()).
		WithSuggestions(suggestions...).
		Wrap(fmt.Errorf("%w: %w", ErrLaunchFailed, cause)).
		BuildError()
}
