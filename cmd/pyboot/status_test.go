// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyboot/pyboot/internal/testutil"

	"gopkg.in/yaml.v3"
)

func statusYAML(t *testing.T, p *testProject) statusReport {
	t.Helper()
	code, stdout, stderr := execute(t, append([]string{"status", "-o", "yaml"}, p.args()...)...)
	if code != 0 {
		t.Fatalf("status exit code = %d; stderr:\n%s", code, stderr)
	}
	var report statusReport
	if err := yaml.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("status output is not YAML: %v\n%s", err, stdout)
	}
	return report
}

func TestStatus_BeforeAndAfterSetup(t *testing.T) {
	p := newTestProject(t)

	before := statusYAML(t, p)
	if before.Interpreter.Version != "3.11.4" {
		t.Errorf("interpreter version = %q, want 3.11.4", before.Interpreter.Version)
	}
	if before.Interpreter.Minimum != "3.8" {
		t.Errorf("minimum = %q, want 3.8", before.Interpreter.Minimum)
	}
	if before.Environment.Exists {
		t.Error("environment reported before provisioning")
	}
	if !before.Requirements.Exists || before.Requirements.UpToDate {
		t.Errorf("requirements = %+v, want existing and pending", before.Requirements)
	}
	if !before.EntryPoint.Exists {
		t.Error("entry point not found")
	}

	for _, stage := range []string{"provision", "install"} {
		if code, _, stderr := execute(t, append([]string{stage}, p.args()...)...); code != 0 {
			t.Fatalf("%s exit code = %d; stderr:\n%s", stage, code, stderr)
		}
	}

	after := statusYAML(t, p)
	if !after.Environment.Exists || !after.Environment.ActivateScript {
		t.Errorf("environment = %+v, want existing with activate script", after.Environment)
	}
	if after.Environment.PythonVersion != "3.11.4" {
		t.Errorf("environment python = %q, want 3.11.4", after.Environment.PythonVersion)
	}
	if !after.Requirements.UpToDate {
		t.Error("requirements not up to date after install")
	}

	testutil.MustWriteFile(t, filepath.Join(p.dir, "requirements.txt"), "requests==2.31.0\nnumpy\n")
	if statusYAML(t, p).Requirements.UpToDate {
		t.Error("requirements still up to date after edit")
	}
}

func TestStatus_TextOutput(t *testing.T) {
	p := newTestProject(t)

	code, stdout, stderr := execute(t, append([]string{"status"}, p.args()...)...)
	if code != 0 {
		t.Fatalf("exit code = %d; stderr:\n%s", code, stderr)
	}
	for _, want := range []string{"Interpreter", "3.11.4", "not created", "Requirements", "Entry point"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatus_RejectsUnknownFormat(t *testing.T) {
	p := newTestProject(t)

	code, _, stderr := execute(t, append([]string{"status", "-o", "json"}, p.args()...)...)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, `unsupported output format "json"`) {
		t.Errorf("stderr = %q", stderr)
	}
}
