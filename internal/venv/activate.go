// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pyboot/pyboot/internal/runtime"

	"golang.org/x/exp/maps"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualEnvVar is exported by every activation script.
const VirtualEnvVar = "VIRTUAL_ENV"

// ErrActivationFailed is returned when the activation script cannot be run.
var ErrActivationFailed = errors.New("virtual environment activation failed")

// Activate returns the environment produced by sourcing layout's activation
// script on top of base. Without a script, or when the script does not
// export VIRTUAL_ENV, the canonical activation is applied instead.
func Activate(ctx context.Context, layout Layout, base map[string]string) (map[string]string, error) {
	if !layout.HasActivateScript() {
		return CanonicalActivation(layout, base)
	}

	script, err := os.ReadFile(layout.ActivateScript())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}
	prog, err := syntax.NewParser().Parse(bytes.NewReader(script), layout.ActivateScript())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrActivationFailed, layout.ActivateScript(), err)
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(runtime.EnvToSlice(base)...)),
		interp.StdIO(nil, io.Discard, io.Discard),
		interp.ExecHandlers(activationExecHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create interpreter: %w", ErrActivationFailed, err)
	}

	// A non-zero final status (e.g. from an optional `hash -r`) is tolerated,
	// just as sourcing the script interactively would be.
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if !errors.As(err, &exitStatus) {
			return nil, fmt.Errorf("%w: %w", ErrActivationFailed, err)
		}
	}

	env := make(map[string]string, len(runner.Vars))
	for name, vr := range runner.Vars {
		if vr.IsSet() && vr.Exported && vr.Kind == expand.String {
			env[name] = vr.String()
		}
	}

	if _, ok := env[VirtualEnvVar]; !ok {
		return CanonicalActivation(layout, env)
	}
	return env, nil
}

// CanonicalActivation applies what every activation script does: set
// VIRTUAL_ENV, put the bin directory first on PATH and drop PYTHONHOME.
// base is not modified.
func CanonicalActivation(layout Layout, base map[string]string) (map[string]string, error) {
	absDir, err := layout.AbsDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}
	binDir := NewLayoutFor(absDir, layout.goos).BinDir()

	env := maps.Clone(base)
	if env == nil {
		env = make(map[string]string, 2)
	}
	env[VirtualEnvVar] = absDir
	env["PATH"] = runtime.PrependPath(binDir, base["PATH"])
	delete(env, "PYTHONHOME")
	return env, nil
}

// activationExecHandler turns `hash`, which the embedded shell lacks, into a
// no-op and runs every other external command normally.
func activationExecHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "hash" {
			return nil
		}
		return next(ctx, args)
	}
}
