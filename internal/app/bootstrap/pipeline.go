// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/interpreter"
	"github.com/pyboot/pyboot/internal/launcher"
	"github.com/pyboot/pyboot/internal/requirements"
	"github.com/pyboot/pyboot/internal/runtime"
	"github.com/pyboot/pyboot/internal/venv"
)

type (
	// Options configures a Pipeline.
	//
	// Only Config is required; every other field has a working default.
	Options struct {
		Config *config.Config
		Runner runtime.Runner
		Logger *slog.Logger
		// IO is handed to the launched program; pip output goes to IO.Stderr.
		IO launcher.IO
		// WorkDir resolves relative paths and is searched for pyproject.toml.
		// Empty means the current directory.
		WorkDir string
		// LocatorOptions customize interpreter lookup.
		LocatorOptions []interpreter.LocatorOption
	}

	// Pipeline runs the stages against one configuration. Each stage is also
	// callable on its own; Run chains them and stops at the first failure.
	Pipeline struct {
		cfg     *config.Config
		runner  runtime.Runner
		logger  *slog.Logger
		io      launcher.IO
		workDir string
		locOpts []interpreter.LocatorOption
	}

	// State accumulates what each completed stage produced.
	State struct {
		Interpreter interpreter.Interpreter
		Version     interpreter.Version
		Environment venv.Outcome
		Install     requirements.Report
		// ExitCode is the launched program's exit status.
		ExitCode runtime.ExitCode
		// Completed lists the stages that succeeded, in order.
		Completed []Stage
	}

	step struct {
		stage Stage
		run   func(ctx context.Context, st *State) error
	}
)

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		cfg:     opts.Config,
		runner:  opts.Runner,
		logger:  opts.Logger,
		io:      opts.IO,
		workDir: opts.WorkDir,
		locOpts: opts.LocatorOptions,
	}
	if p.runner == nil {
		p.runner = runtime.NewHostRunner()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Layout returns the configured environment layout.
func (p *Pipeline) Layout() venv.Layout {
	return venv.NewLayout(p.path(p.cfg.VenvDir))
}

// RequirementsPath returns the configured requirements file path.
func (p *Pipeline) RequirementsPath() string {
	return p.path(p.cfg.Requirements)
}

// EntryPointPath returns the configured entry point path.
func (p *Pipeline) EntryPointPath() string {
	return p.path(p.cfg.EntryPoint)
}

// Locate finds the interpreter.
func (p *Pipeline) Locate(_ context.Context) (interpreter.Interpreter, error) {
	interp, err := interpreter.NewLocator(p.cfg.Interpreter, p.locOpts...).Locate()
	if err != nil {
		return interpreter.Interpreter{}, newStageError(StageLocate, err)
	}
	p.logger.Debug("located interpreter", "name", interp.Name, "path", interp.Path)
	return interp, nil
}

// MinimumVersion returns the configured minimum, raised by the project's
// requires-python when that is honored.
func (p *Pipeline) MinimumVersion() (interpreter.Version, error) {
	return interpreter.EffectiveMinimum(p.cfg.Interpreter.MinVersion, p.dir(), p.cfg.Interpreter.HonorRequiresPython)
}

// Validate checks interp against the effective minimum version.
func (p *Pipeline) Validate(ctx context.Context, interp interpreter.Interpreter) (interpreter.Version, error) {
	minimum, err := p.MinimumVersion()
	if err != nil {
		return interpreter.Version{}, newStageError(StageValidate, err)
	}

	version, err := interpreter.NewValidator(p.runner, p.logger, minimum).Validate(ctx, interp)
	if err != nil {
		return version, newStageError(StageValidate, err)
	}
	return version, nil
}

// Provision creates or reuses the environment with interp.
func (p *Pipeline) Provision(ctx context.Context, interp interpreter.Interpreter) (venv.Outcome, error) {
	out, err := venv.NewProvisioner(p.runner, p.logger).Provision(ctx, interp.Path, p.Layout())
	if err != nil {
		return venv.Outcome{}, newStageError(StageProvision, err)
	}
	return out, nil
}

// Install installs the requirements file into the environment.
func (p *Pipeline) Install(ctx context.Context) (requirements.Report, error) {
	inst := requirements.NewInstaller(p.runner, p.logger, p.cfg.Install, p.io.Stderr)
	report, err := inst.Install(ctx, p.Layout(), p.RequirementsPath())
	if err != nil {
		return report, newStageError(StageInstall, err)
	}
	return report, nil
}

// Launch runs the entry point with args and returns its exit status.
func (p *Pipeline) Launch(ctx context.Context, args []string) (runtime.ExitCode, error) {
	code, err := launcher.New(p.runner, p.logger, p.io).Launch(ctx, p.Layout(), p.EntryPointPath(), args)
	if err != nil {
		return code, newStageError(StageLaunch, err)
	}
	return code, nil
}

// Setup runs every stage except launch.
func (p *Pipeline) Setup(ctx context.Context) (*State, error) {
	return p.run(ctx, p.steps(nil, false))
}

// Run runs every stage and returns the launched program's exit status in
// State.ExitCode. A non-zero program exit is not an error.
func (p *Pipeline) Run(ctx context.Context, args []string) (*State, error) {
	return p.run(ctx, p.steps(args, true))
}

func (p *Pipeline) steps(args []string, launch bool) []step {
	steps := []step{
		{StageLocate, func(ctx context.Context, st *State) (err error) {
			st.Interpreter, err = p.Locate(ctx)
			return err
		}},
		{StageValidate, func(ctx context.Context, st *State) (err error) {
			st.Version, err = p.Validate(ctx, st.Interpreter)
			return err
		}},
		{StageProvision, func(ctx context.Context, st *State) (err error) {
			st.Environment, err = p.Provision(ctx, st.Interpreter)
			return err
		}},
		{StageInstall, func(ctx context.Context, st *State) (err error) {
			st.Install, err = p.Install(ctx)
			return err
		}},
	}
	if launch {
		steps = append(steps, step{StageLaunch, func(ctx context.Context, st *State) (err error) {
			st.ExitCode, err = p.Launch(ctx, args)
			return err
		}})
	}
	return steps
}

func (p *Pipeline) run(ctx context.Context, steps []step) (*State, error) {
	st := &State{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return st, newStageError(s.stage, err)
		}
		p.logger.Debug("stage start", "stage", string(s.stage))
		if err := s.run(ctx, st); err != nil {
			if st.ExitCode == 0 {
				st.ExitCode = 1
			}
			return st, err
		}
		st.Completed = append(st.Completed, s.stage)
	}
	return st, nil
}

func (p *Pipeline) dir() string {
	if p.workDir == "" {
		return "."
	}
	return p.workDir
}

// path resolves rel against WorkDir when one is set. Without WorkDir paths
// stay as configured, so the program sees its entry point as given.
func (p *Pipeline) path(rel string) string {
	if p.workDir == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.workDir, rel)
}
