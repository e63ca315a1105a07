// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	ids := []Id{
		InterpreterNotFoundId,
		VersionTooLowId,
		VenvCreationFailedId,
		RequirementsNotFoundId,
		InstallFailedId,
		EntryPointNotFoundId,
		LaunchFailedId,
		ConfigLoadFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true

		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil; every ID needs a catalog entry", id)
		}
	}

	if InterpreterNotFoundId != 1 {
		t.Errorf("InterpreterNotFoundId = %d, want 1", InterpreterNotFoundId)
	}
	if len(issues) != len(ids) {
		t.Errorf("catalog has %d entries, want %d", len(issues), len(ids))
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}

func TestIssue_RenderNoTTY(t *testing.T) {
	t.Parallel()

	out, err := Get(RequirementsNotFoundId).Render(StyleNoTTY)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Requirements file not found") {
		t.Errorf("rendered output missing heading:\n%s", out)
	}
	if !strings.Contains(out, "REQUIREMENTS=requirements/dev.txt") {
		t.Errorf("rendered output missing code block:\n%s", out)
	}
}

func TestIssue_RenderAppendsLinks(t *testing.T) {
	t.Parallel()

	out, err := Get(InterpreterNotFoundId).Render(StyleNoTTY)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "python.org/downloads") {
		t.Errorf("rendered output missing external link:\n%s", out)
	}
}
