// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Environment switches understood by the fake interpreter script.
const (
	// FakeFailVenvEnv makes `-m venv` exit 1 without creating anything.
	FakeFailVenvEnv = "FAKE_PYTHON_FAIL_VENV"
	// FakeNoActivateEnv makes `-m venv` skip writing bin/activate.
	FakeNoActivateEnv = "FAKE_PYTHON_NO_ACTIVATE"
	// FakeFailPipEnv makes every `-m pip` call exit 1.
	FakeFailPipEnv = "FAKE_PYTHON_FAIL_PIP"
	// FakeExitEnv sets the exit status of a launched program.
	FakeExitEnv = "FAKE_PYTHON_EXIT"
)

const fakePythonScript = `#!/bin/sh
log=%s
version=%s

if [ "$1" = "--version" ]; then
	echo "Python $version"
	exit 0
fi

if [ "$1" = "-m" ] && [ "$2" = "venv" ]; then
	echo "venv $3" >> "$log"
	if [ -n "$FAKE_PYTHON_FAIL_VENV" ]; then
		echo "Error: Command '-m venv' returned non-zero exit status 1." >&2
		exit 1
	fi
	dir="$3"
	mkdir -p "$dir/bin" || exit 1
	abs=$(cd "$dir" && pwd)
	if [ -z "$FAKE_PYTHON_NO_ACTIVATE" ]; then
		cat > "$dir/bin/activate" <<ACTIVATE
# This file must be used with "source bin/activate"
VIRTUAL_ENV='$abs'
export VIRTUAL_ENV
PATH="\$VIRTUAL_ENV/bin:\$PATH"
export PATH
unset PYTHONHOME
hash -r 2> /dev/null
ACTIVATE
	fi
	printf 'home = %%s\ninclude-system-site-packages = false\nversion = %%s\n' "$(dirname "$0")" "$version" > "$dir/pyvenv.cfg"
	cp "$0" "$dir/bin/python"
	exit 0
fi

if [ "$1" = "-m" ] && [ "$2" = "pip" ]; then
	shift 2
	echo "pip $*" >> "$log"
	if [ -n "$FAKE_PYTHON_FAIL_PIP" ]; then
		echo "ERROR: No matching distribution found" >&2
		exit 1
	fi
	echo "Successfully installed"
	exit 0
fi

echo "run $*" >> "$log"
if [ -n "$1" ] && [ ! -f "$1" ]; then
	echo "can't open file '$1': [Errno 2] No such file or directory" >&2
	exit 2
fi
echo "args: $*"
echo "VIRTUAL_ENV=${VIRTUAL_ENV:-}"
exit "${FAKE_PYTHON_EXIT:-0}"
`

// FakeInterpreter is a shell script standing in for a Python interpreter.
// Every venv, pip and program invocation is appended to LogPath, including
// those made through the bin/python copy placed in created environments.
type FakeInterpreter struct {
	// Dir holds the script and its log.
	Dir string
	// Path is the script location.
	Path string
	// LogPath records invocations, one per line.
	LogPath string
	// Version is what `--version` reports.
	Version string
}

// WriteFakePython writes an executable fake interpreter called name into dir.
func WriteFakePython(dir, name, version string) (*FakeInterpreter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	f := &FakeInterpreter{
		Dir:     absDir,
		Path:    filepath.Join(absDir, name),
		LogPath: filepath.Join(absDir, name+".log"),
		Version: version,
	}
	script := fmt.Sprintf(fakePythonScript, shellQuote(f.LogPath), shellQuote(version))
	if err := os.WriteFile(f.Path, []byte(script), 0o755); err != nil { //nolint:gosec // test fixture must be executable
		return nil, err
	}
	return f, nil
}

// FakePython writes a fake `python3` reporting version into dir. Tests using
// it are skipped on Windows, where shell scripts are not executable.
func FakePython(t testing.TB, dir, version string) *FakeInterpreter {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter is a POSIX shell script")
	}
	f, err := WriteFakePython(dir, "python3", version)
	if err != nil {
		t.Fatalf("failed to write fake interpreter: %v", err)
	}
	return f
}

// Invocations returns the logged invocations in order.
func (f *FakeInterpreter) Invocations(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(f.LogPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read fake interpreter log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// Calls returns the logged invocations whose first word is kind
// ("venv", "pip" or "run"), with that word removed.
func (f *FakeInterpreter) Calls(t testing.TB, kind string) []string {
	t.Helper()
	var calls []string
	for _, line := range f.Invocations(t) {
		if rest, ok := strings.CutPrefix(line, kind+" "); ok {
			calls = append(calls, rest)
		} else if line == kind {
			calls = append(calls, "")
		}
	}
	return calls
}

// PrependToPath puts the fake interpreter's directory first on PATH for the
// duration of the test.
func (f *FakeInterpreter) PrependToPath(t testing.TB) {
	t.Helper()
	t.Setenv("PATH", f.Dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
