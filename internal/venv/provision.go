// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pyboot/pyboot/internal/issue"
	"github.com/pyboot/pyboot/internal/runtime"
)

// ErrCreateFailed is returned when an environment cannot be created.
var ErrCreateFailed = errors.New("virtual environment creation failed")

type (
	// Provisioner creates or reuses environment directories.
	Provisioner struct {
		runner runtime.Runner
		logger *slog.Logger
	}

	// Outcome describes what Provision did.
	Outcome struct {
		Layout Layout
		// Created is false when an existing directory was reused.
		Created bool
	}
)

// NewProvisioner creates a Provisioner.
func NewProvisioner(runner runtime.Runner, logger *slog.Logger) *Provisioner {
	return &Provisioner{runner: runner, logger: logger}
}

// Provision ensures layout's directory exists. An existing directory is
// reused without inspecting its interpreter or contents; otherwise python
// creates it with `-m venv` and the activation script must appear.
func (p *Provisioner) Provision(ctx context.Context, python string, layout Layout) (Outcome, error) {
	exists, err := layout.Exists()
	if err != nil {
		return Outcome{}, createError(layout, err,
			"Remove or rename the file, or point VENV_DIR at a directory")
	}

	if exists {
		p.logger.Info("Virtual environment already exists", "path", layout.Dir())
		if !layout.HasActivateScript() {
			p.logger.Warn("activation script missing, environment will be activated without it",
				"script", layout.ActivateScript())
		}
		return Outcome{Layout: layout, Created: false}, nil
	}

	p.logger.Info("Creating virtual environment", "path", layout.Dir(), "interpreter", python)
	res := p.runner.Capture(ctx, runtime.Command{
		Path: python,
		Args: []string{"-m", "venv", layout.Dir()},
	})
	if res.Failed() {
		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("%s -m venv exited with status %d", python, res.ExitCode)
		}
		if detail := strings.TrimSpace(res.ErrOutput); detail != "" {
			p.logger.Debug("venv output", "stderr", detail)
			cause = fmt.Errorf("%w: %s", cause, lastLine(detail))
		}
		return Outcome{}, createError(layout, cause,
			"On Debian/Ubuntu, install the python3-venv package",
			"Check free disk space and write permission for "+layout.Dir())
	}

	if !layout.HasActivateScript() {
		return Outcome{}, createError(layout,
			fmt.Errorf("activation script %s was not created", layout.ActivateScript()),
			"Remove "+layout.Dir()+" and retry with a different interpreter")
	}

	return Outcome{Layout: layout, Created: true}, nil
}

func createError(layout Layout, cause error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("create virtual environment").
		WithResource(layout.Dir()).
		WithSuggestions(suggestions...).
		Wrap(fmt.Errorf("%w: %w", ErrCreateFailed, cause)).
		BuildError()
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
