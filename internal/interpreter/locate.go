// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/issue"
)

// ErrNotFound is returned when no interpreter candidate can be invoked.
var ErrNotFound = errors.New("no python interpreter found")

type (
	// Interpreter is a located, invocable interpreter.
	Interpreter struct {
		// Name is the command as configured, e.g. "python3". It is what the
		// locate stage prints.
		Name string
		// Path is the resolved executable path.
		Path string
	}

	// Locator resolves an Interpreter from an explicit path or a
	// prioritized candidate list.
	Locator struct {
		explicit   string
		candidates []string
		lookPath   func(string) (string, error)
	}

	// LocatorOption customizes a Locator.
	LocatorOption func(*Locator)
)

// WithLookPath replaces exec.LookPath, mainly for tests.
func WithLookPath(fn func(string) (string, error)) LocatorOption {
	return func(l *Locator) { l.lookPath = fn }
}

// NewLocator creates a Locator from the interpreter configuration.
func NewLocator(cfg config.InterpreterConfig, opts ...LocatorOption) *Locator {
	l := &Locator{
		explicit:   cfg.Path,
		candidates: cfg.Candidates,
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the first invocable candidate. An explicit path, when
// configured, is the only candidate.
func (l *Locator) Locate() (Interpreter, error) {
	candidates := l.candidates
	if l.explicit != "" {
		candidates = []string{l.explicit}
	}

	for _, name := range candidates {
		if path, err := l.lookPath(name); err == nil {
			return Interpreter{Name: name, Path: path}, nil
		}
	}

	ctx := issue.NewErrorContext().
		WithOperation("locate python interpreter").
		WithResource(strings.Join(candidates, ", "))
	if l.explicit != "" {
		ctx = ctx.WithSuggestion("Check that " + l.explicit + " exists and is executable").
			WithSuggestion("Unset PYBOOT_PYTHON to search the default candidates")
	} else {
		ctx = ctx.WithSuggestion("Install Python 3 from https://www.python.org/downloads/").
			WithSuggestion("Add the interpreter's directory to PATH or set PYBOOT_PYTHON")
	}
	return Interpreter{}, ctx.Wrap(fmt.Errorf("%w (tried %s)", ErrNotFound, strings.Join(candidates, ", "))).BuildError()
}
