// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/interpreter"
	"github.com/pyboot/pyboot/internal/launcher"
	"github.com/pyboot/pyboot/internal/testutil"
)

type fixture struct {
	work string
	fake *testutil.FakeInterpreter
	cfg  *config.Config
	logs *bytes.Buffer
	out  *bytes.Buffer
}

func newFixture(t *testing.T, version string) *fixture {
	t.Helper()
	work := t.TempDir()
	fake := testutil.FakePython(t, filepath.Join(work, "py"), version)

	cfg := config.DefaultConfig()
	cfg.Interpreter.Path = fake.Path

	return &fixture{work: work, fake: fake, cfg: cfg, logs: &bytes.Buffer{}, out: &bytes.Buffer{}}
}

func (f *fixture) pipeline() *Pipeline {
	return New(Options{
		Config:  f.cfg,
		Logger:  slog.New(slog.NewTextHandler(f.logs, nil)),
		IO:      launcher.IO{Stdout: f.out, Stderr: f.out},
		WorkDir: f.work,
	})
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	testutil.MustWriteFile(t, filepath.Join(f.work, rel), content)
}

func TestPipeline_RunEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.12.1")
	f.write(t, "requirements.txt", "torch==2.1.0\nnumpy\n")
	f.write(t, "main.py", "print('hello')\n")

	st, err := f.pipeline().Run(t.Context(), []string{"--epochs", "3"})
	if err != nil {
		t.Fatalf("Run() error = %v\nlogs:\n%s", err, f.logs)
	}

	want := []Stage{StageLocate, StageValidate, StageProvision, StageInstall, StageLaunch}
	if !slices.Equal(st.Completed, want) {
		t.Errorf("Completed = %v, want %v", st.Completed, want)
	}
	if st.ExitCode != 0 {
		t.Errorf("ExitCode = %d", st.ExitCode)
	}
	if !st.Environment.Created {
		t.Error("fresh directory should be created")
	}
	if st.Version.String() != "3.12.1" {
		t.Errorf("Version = %v", st.Version)
	}

	logs := f.logs.String()
	for _, msg := range []string{"Found Python 3.12.1", "Creating virtual environment", "CPU-only index"} {
		if !strings.Contains(logs, msg) {
			t.Errorf("logs missing %q:\n%s", msg, logs)
		}
	}

	pip := f.fake.Calls(t, "pip")
	if len(pip) != 2 || !strings.Contains(pip[0], "--index-url https://download.pytorch.org/whl/cpu torch==2.1.0") {
		t.Errorf("pip calls = %v", pip)
	}
	runs := f.fake.Calls(t, "run")
	if len(runs) != 1 || !strings.HasSuffix(runs[0], "main.py --epochs 3") {
		t.Errorf("run calls = %v", runs)
	}
	if !strings.Contains(f.out.String(), "args: ") {
		t.Errorf("program output not forwarded: %q", f.out.String())
	}
}

func TestPipeline_SecondRunReusesEnvironment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.10.0")
	f.write(t, "requirements.txt", "flask\n")
	f.write(t, "main.py", "")

	if _, err := f.pipeline().Run(t.Context(), nil); err != nil {
		t.Fatal(err)
	}
	f.logs.Reset()

	st, err := f.pipeline().Run(t.Context(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.Environment.Created {
		t.Error("second run should reuse the environment")
	}
	if !strings.Contains(f.logs.String(), "already exists") {
		t.Errorf("logs = %s", f.logs.String())
	}
	if n := len(f.fake.Calls(t, "venv")); n != 1 {
		t.Errorf("venv created %d times", n)
	}
}

func TestPipeline_ChildExitCode(t *testing.T) {
	f := newFixture(t, "3.12.1")
	f.write(t, "requirements.txt", "")
	f.write(t, "main.py", "")
	t.Setenv(testutil.FakeExitEnv, "5")

	st, err := f.pipeline().Run(t.Context(), nil)
	if err != nil {
		t.Fatalf("non-zero program exit must not be an error: %v", err)
	}
	if st.ExitCode != 5 {
		t.Errorf("ExitCode = %d, want 5", st.ExitCode)
	}
}

func TestPipeline_FailFast(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		setup     func(t *testing.T, f *fixture)
		wantStage Stage
		wantKind  Kind
		wantDone  []Stage
	}{
		{
			name:    "interpreter missing",
			version: "3.12.1",
			setup: func(t *testing.T, f *fixture) {
				f.cfg.Interpreter.Path = filepath.Join(f.work, "missing-python")
			},
			wantStage: StageLocate,
			wantKind:  KindNotFound,
		},
		{
			name:      "version too low",
			version:   "3.6.9",
			setup:     func(*testing.T, *fixture) {},
			wantStage: StageValidate,
			wantKind:  KindVersionTooLow,
			wantDone:  []Stage{StageLocate},
		},
		{
			name:    "pyproject raises minimum",
			version: "3.9.1",
			setup: func(t *testing.T, f *fixture) {
				f.write(t, "pyproject.toml", "[project]\nrequires-python = \">=3.11\"\n")
			},
			wantStage: StageValidate,
			wantKind:  KindVersionTooLow,
			wantDone:  []Stage{StageLocate},
		},
		{
			name:    "venv creation fails",
			version: "3.12.1",
			setup: func(t *testing.T, f *fixture) {
				t.Setenv(testutil.FakeFailVenvEnv, "1")
			},
			wantStage: StageProvision,
			wantKind:  KindCreationFailure,
			wantDone:  []Stage{StageLocate, StageValidate},
		},
		{
			name:      "requirements missing",
			version:   "3.12.1",
			setup:     func(*testing.T, *fixture) {},
			wantStage: StageInstall,
			wantKind:  KindNotFound,
			wantDone:  []Stage{StageLocate, StageValidate, StageProvision},
		},
		{
			name:    "pip fails",
			version: "3.12.1",
			setup: func(t *testing.T, f *fixture) {
				f.write(t, "requirements.txt", "numpy\n")
				t.Setenv(testutil.FakeFailPipEnv, "1")
			},
			wantStage: StageInstall,
			wantKind:  KindInstallFailure,
			wantDone:  []Stage{StageLocate, StageValidate, StageProvision},
		},
		{
			name:    "entry point missing",
			version: "3.12.1",
			setup: func(t *testing.T, f *fixture) {
				f.write(t, "requirements.txt", "numpy\n")
			},
			wantStage: StageLaunch,
			wantKind:  KindNotFound,
			wantDone:  []Stage{StageLocate, StageValidate, StageProvision, StageInstall},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.version)
			tt.setup(t, f)

			st, err := f.pipeline().Run(t.Context(), nil)
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *StageError", err)
			}
			if se.Stage != tt.wantStage || se.Kind != tt.wantKind {
				t.Errorf("got %s/%s, want %s/%s", se.Stage, se.Kind, tt.wantStage, tt.wantKind)
			}
			if !slices.Equal(st.Completed, tt.wantDone) {
				t.Errorf("Completed = %v, want %v", st.Completed, tt.wantDone)
			}
			if st.ExitCode == 0 {
				t.Error("failed pipeline must report a non-zero exit code")
			}
		})
	}
}

func TestPipeline_MissingRequirementsRunsNoPip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.12.1")
	_, err := f.pipeline().Install(t.Context())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Install() error = %v", err)
	}
	if calls := f.fake.Calls(t, "pip"); len(calls) != 0 {
		t.Errorf("pip ran: %v", calls)
	}
}

func TestPipeline_Setup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.12.1")
	f.write(t, "requirements.txt", "flask\n")

	st, err := f.pipeline().Setup(t.Context())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if slices.Contains(st.Completed, StageLaunch) {
		t.Error("Setup must not launch")
	}
	if runs := f.fake.Calls(t, "run"); len(runs) != 0 {
		t.Errorf("program ran: %v", runs)
	}
	if _, err := os.Stat(filepath.Join(f.work, ".venv")); err != nil {
		t.Errorf("environment missing: %v", err)
	}
}

func TestPipeline_LocateOnPath(t *testing.T) {
	f := newFixture(t, "3.12.1")
	f.fake.PrependToPath(t)
	f.cfg.Interpreter.Path = ""

	interp, err := f.pipeline().Locate(t.Context())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if interp.Name != "python3" || !strings.Contains(interp.Name, "python") {
		t.Errorf("Name = %q", interp.Name)
	}
}

func TestPipeline_LocatorOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	p := New(Options{
		Config: cfg,
		LocatorOptions: []interpreter.LocatorOption{interpreter.WithLookPath(func(string) (string, error) {
			return "", errors.New("not found")
		})},
	})

	_, err := p.Locate(t.Context())
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindNotFound {
		t.Fatalf("error = %v, want NotFound stage error", err)
	}
	if !errors.Is(err, interpreter.ErrNotFound) {
		t.Error("stage error must unwrap to interpreter.ErrNotFound")
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(Options{Config: config.DefaultConfig()}).Run(ctx, nil)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageLocate {
		t.Fatalf("error = %v, want locate stage error", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled: %v", err)
	}
}

func TestPipeline_PathsAndMinimum(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.12.1")
	f.write(t, "pyproject.toml", "[project]\nrequires-python = \">=3.10\"\n")
	p := f.pipeline()

	if got, want := p.EntryPointPath(), filepath.Join(f.work, "main.py"); got != want {
		t.Errorf("EntryPointPath() = %q, want %q", got, want)
	}
	if got, want := p.RequirementsPath(), filepath.Join(f.work, "requirements.txt"); got != want {
		t.Errorf("RequirementsPath() = %q, want %q", got, want)
	}

	minimum, err := p.MinimumVersion()
	if err != nil {
		t.Fatalf("MinimumVersion() error = %v", err)
	}
	if minimum.Short() != "3.10" {
		t.Errorf("MinimumVersion() = %s, want 3.10 from pyproject.toml", minimum.Short())
	}
}
