// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyboot/pyboot/internal/testutil"
)

func TestActivate_SourcesScript(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	fake := testutil.FakePython(t, filepath.Join(work, "py"), "3.12.1")
	layout := NewLayout(filepath.Join(work, ".venv"))
	if err := exec.Command(fake.Path, "-m", "venv", layout.Dir()).Run(); err != nil {
		t.Fatalf("venv creation failed: %v", err)
	}

	base := map[string]string{
		"PATH":       "/usr/bin:/bin",
		"PYTHONHOME": "/opt/python",
		"KEEP":       "me",
	}
	env, err := Activate(t.Context(), layout, base)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	absDir, _ := layout.AbsDir()
	if env[VirtualEnvVar] != absDir {
		t.Errorf("VIRTUAL_ENV = %q, want %q", env[VirtualEnvVar], absDir)
	}
	wantPath := filepath.Join(absDir, "bin") + string(os.PathListSeparator) + "/usr/bin:/bin"
	if env["PATH"] != wantPath {
		t.Errorf("PATH = %q, want %q", env["PATH"], wantPath)
	}
	if _, ok := env["PYTHONHOME"]; ok {
		t.Error("PYTHONHOME should be unset")
	}
	if env["KEEP"] != "me" {
		t.Error("unrelated variables must be preserved")
	}
	if base["PYTHONHOME"] != "/opt/python" {
		t.Error("base environment must not be modified")
	}
}

func TestActivate_RealisticScript(t *testing.T) {
	t.Parallel()

	layout := NewLayout(filepath.Join(t.TempDir(), ".venv"))
	testutil.MustWriteFile(t, layout.ActivateScript(), `
deactivate () {
    if [ -n "${_OLD_VIRTUAL_PATH:-}" ] ; then
        PATH="${_OLD_VIRTUAL_PATH:-}"
        export PATH
        unset _OLD_VIRTUAL_PATH
    fi
    hash -r 2> /dev/null
    if [ ! "${1:-}" = "nondestructive" ] ; then
        unset -f deactivate
    fi
}

deactivate nondestructive

VIRTUAL_ENV="/srv/app/.venv"
export VIRTUAL_ENV

_OLD_VIRTUAL_PATH="$PATH"
PATH="$VIRTUAL_ENV/bin:$PATH"
export PATH

VIRTUAL_ENV_PROMPT=".venv"
export VIRTUAL_ENV_PROMPT

if [ -n "${PYTHONHOME:-}" ] ; then
    _OLD_VIRTUAL_PYTHONHOME="${PYTHONHOME:-}"
    unset PYTHONHOME
fi

hash -r 2> /dev/null
`)

	env, err := Activate(t.Context(), layout, map[string]string{"PATH": "/bin", "PYTHONHOME": "/x"})
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if env[VirtualEnvVar] != "/srv/app/.venv" {
		t.Errorf("VIRTUAL_ENV = %q", env[VirtualEnvVar])
	}
	if env["PATH"] != "/srv/app/.venv/bin:/bin" {
		t.Errorf("PATH = %q", env["PATH"])
	}
	if env["VIRTUAL_ENV_PROMPT"] != ".venv" {
		t.Errorf("VIRTUAL_ENV_PROMPT = %q", env["VIRTUAL_ENV_PROMPT"])
	}
	if _, ok := env["PYTHONHOME"]; ok {
		t.Error("PYTHONHOME should be unset")
	}
	if _, ok := env["_OLD_VIRTUAL_PATH"]; ok {
		t.Error("non-exported variables must not leak into the environment")
	}
}

func TestActivate_DummyScriptFallsBack(t *testing.T) {
	t.Parallel()

	layout := NewLayout(filepath.Join(t.TempDir(), ".venv"))
	testutil.MustWriteFile(t, layout.ActivateScript(), "# dummy activate\n")

	env, err := Activate(t.Context(), layout, map[string]string{"PATH": "/bin"})
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	absDir, _ := layout.AbsDir()
	if env[VirtualEnvVar] != absDir {
		t.Errorf("VIRTUAL_ENV = %q, want %q", env[VirtualEnvVar], absDir)
	}
	if !strings.HasPrefix(env["PATH"], layout.BinDir()) && !strings.HasPrefix(env["PATH"], filepath.Join(absDir, "bin")) {
		t.Errorf("PATH = %q, want bin dir first", env["PATH"])
	}
}

func TestActivate_NoScript(t *testing.T) {
	t.Parallel()

	layout := NewLayout(t.TempDir())
	env, err := Activate(t.Context(), layout, nil)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if env[VirtualEnvVar] == "" || env["PATH"] == "" {
		t.Errorf("canonical activation not applied: %v", env)
	}
}

func TestActivate_SyntaxError(t *testing.T) {
	t.Parallel()

	layout := NewLayout(filepath.Join(t.TempDir(), ".venv"))
	testutil.MustWriteFile(t, layout.ActivateScript(), "if then fi (\n")

	if _, err := Activate(t.Context(), layout, nil); !errors.Is(err, ErrActivationFailed) {
		t.Fatalf("error = %v, want ErrActivationFailed", err)
	}
}

func TestCanonicalActivation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env, err := CanonicalActivation(NewLayoutFor(dir, "linux"), map[string]string{"PATH": "/bin", "PYTHONHOME": "/x"})
	if err != nil {
		t.Fatal(err)
	}
	if env[VirtualEnvVar] != dir {
		t.Errorf("VIRTUAL_ENV = %q", env[VirtualEnvVar])
	}
	if env["PATH"] != filepath.Join(dir, "bin")+string(os.PathListSeparator)+"/bin" {
		t.Errorf("PATH = %q", env["PATH"])
	}
	if _, ok := env["PYTHONHOME"]; ok {
		t.Error("PYTHONHOME should be removed")
	}
}
