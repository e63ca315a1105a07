// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pyboot/pyboot/internal/issue"
	"github.com/pyboot/pyboot/internal/runtime"
)

// ErrVersionTooLow is returned when an interpreter is older than the minimum.
var ErrVersionTooLow = errors.New("python version too low")

// Validator checks an interpreter's reported version against a minimum.
type Validator struct {
	runner  runtime.Runner
	logger  *slog.Logger
	minimum Version
}

// NewValidator creates a Validator requiring at least minimum.
func NewValidator(runner runtime.Runner, logger *slog.Logger, minimum Version) *Validator {
	return &Validator{runner: runner, logger: logger, minimum: minimum}
}

// Validate runs `<interpreter> --version` and returns the reported version.
func (v *Validator) Validate(ctx context.Context, interp Interpreter) (Version, error) {
	res := v.runner.Capture(ctx, runtime.Command{
		Path: interp.Path,
		Args: []string{"--version"},
	})
	if res.Error != nil {
		return Version{}, issue.NewErrorContext().
			WithOperation("check python version").
			WithResource(interp.Path).
			WithSuggestion("Check that the interpreter is executable").
			Wrap(fmt.Errorf("%w: %w", ErrNotFound, res.Error)).
			BuildError()
	}

	// Python 2 prints its version on stderr.
	version, err := ParseVersionOutput(res.Combined())
	if err != nil {
		return Version{}, issue.NewErrorContext().
			WithOperation("check python version").
			WithResource(interp.Path).
			WithSuggestion("Verify that " + interp.Name + " is a CPython interpreter").
			WithSuggestion("Point PYBOOT_PYTHON at a different interpreter").
			Wrap(err).
			BuildError()
	}

	if !version.AtLeast(v.minimum) {
		v.logger.Debug("interpreter rejected", "interpreter", interp.Path, "version", version.String(), "minimum", v.minimum.Short())
		return version, issue.NewErrorContext().
			WithOperation("check python version").
			WithResource(interp.Path).
			WithSuggestion("Install Python " + v.minimum.Short() + " or newer").
			WithSuggestion("Point PYBOOT_PYTHON at a newer interpreter").
			Wrap(fmt.Errorf("%w: found Python %s, need %s or newer", ErrVersionTooLow, version, v.minimum.Short())).
			BuildError()
	}

	v.logger.Info("Found Python "+version.String(), "interpreter", interp.Name, "path", interp.Path)
	return version, nil
}
