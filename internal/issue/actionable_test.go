// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "locate interpreter"},
			expected: "failed to locate interpreter",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "install requirements",
				Resource:  "requirements.txt",
			},
			expected: "failed to install requirements: requirements.txt",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "create virtual environment",
				Cause:     errors.New("disk full"),
			},
			expected: "failed to create virtual environment: disk full",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "install requirements",
				Resource:  "requirements.txt",
				Cause:     errors.New("requirements file not found"),
			},
			expected: "failed to install requirements: requirements.txt: requirements file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("launch program").
		WithResource("main.py").
		Wrap(fmt.Errorf("wrapped: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should see through ActionableError")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find ActionableError")
	}
	if ae.Resource != "main.py" {
		t.Errorf("Resource = %q, want %q", ae.Resource, "main.py")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	built := NewErrorContext().
		WithOperation("install requirements").
		WithResource("requirements.txt").
		WithSuggestion("Create the file").
		WithSuggestions("Set REQUIREMENTS", "Run from the project root").
		Wrap(fmt.Errorf("outer: %w", errors.New("inner"))).
		BuildError()

	var err *ActionableError
	if !errors.As(built, &err) {
		t.Fatalf("BuildError() = %T, want *ActionableError", built)
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3 entries in order", err.Suggestions)
	}

	short := err.Format(false)
	if !strings.Contains(short, "  • Create the file") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain:") || !strings.Contains(long, "2. inner") {
		t.Errorf("Format(true) missing error chain:\n%s", long)
	}
}

func TestErrorContext_BuildRequiresOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").BuildError() != nil {
		t.Error("BuildError() without operation should return a nil error")
	}
}
