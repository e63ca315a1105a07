// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyboot/pyboot/internal/runtime"
)

func TestMustChdir(t *testing.T) {
	original, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	restore := MustChdir(t, dir)
	got, _ := os.Getwd()
	if resolved, _ := filepath.EvalSymlinks(dir); got != resolved && got != dir {
		t.Errorf("Getwd() = %q, want %q", got, dir)
	}
	restore()

	if got, _ := os.Getwd(); got != original {
		t.Errorf("directory not restored: %q", got)
	}
}

func TestMustWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	MustWriteFile(t, path, "hello")
	if got := MustReadFile(t, path); got != "hello" {
		t.Errorf("content = %q", got)
	}
}

func TestFakePython(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := FakePython(t, filepath.Join(dir, "bin"), "3.11.4")

	out, err := exec.Command(fake.Path, "--version").Output()
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if strings.TrimSpace(string(out)) != "Python 3.11.4" {
		t.Errorf("--version = %q", out)
	}

	venvDir := filepath.Join(dir, "env")
	if err := exec.Command(fake.Path, "-m", "venv", venvDir).Run(); err != nil {
		t.Fatalf("-m venv failed: %v", err)
	}
	for _, p := range []string{"bin/activate", "bin/python", "pyvenv.cfg"} {
		if _, err := os.Stat(filepath.Join(venvDir, p)); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}

	venvPython := filepath.Join(venvDir, "bin", "python")
	if err := exec.Command(venvPython, "-m", "pip", "install", "-r", "req.txt").Run(); err != nil {
		t.Fatalf("-m pip failed: %v", err)
	}

	if got := fake.Calls(t, "venv"); len(got) != 1 || got[0] != venvDir {
		t.Errorf("venv calls = %v", got)
	}
	if got := fake.Calls(t, "pip"); len(got) != 1 || got[0] != "install -r req.txt" {
		t.Errorf("pip calls = %v", got)
	}
}

func TestFakePython_ExitStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := FakePython(t, dir, "3.12.0")
	script := filepath.Join(dir, "main.py")
	MustWriteFile(t, script, "")

	cmd := exec.Command(fake.Path, script, "a")
	cmd.Env = append(os.Environ(), FakeExitEnv+"=7")
	err := cmd.Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 7 {
		t.Fatalf("expected exit status 7, got %v", err)
	}
}

func TestFakeRunner(t *testing.T) {
	t.Parallel()

	r := &FakeRunner{Respond: func(cmd runtime.Command) *runtime.Result {
		if cmd.Path == "fail" {
			return runtime.NewExitCodeResult(3)
		}
		return runtime.NewSuccessResult()
	}}

	if res := r.Run(t.Context(), runtime.Command{Path: "ok"}); res.Failed() {
		t.Error("ok should succeed")
	}
	if res := r.Capture(t.Context(), runtime.Command{Path: "fail"}); res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if got := len(r.Commands()); got != 2 {
		t.Errorf("recorded %d commands, want 2", got)
	}
}
