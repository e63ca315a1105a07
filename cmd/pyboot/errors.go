// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pyboot/pyboot/internal/app/bootstrap"
	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/interpreter"
	"github.com/pyboot/pyboot/internal/issue"
	"github.com/pyboot/pyboot/internal/launcher"
	"github.com/pyboot/pyboot/internal/requirements"

	"github.com/charmbracelet/fang"
	"golang.org/x/term"
)

// handleError is the fang error handler. A bare ExitError carries the
// launched program's status and prints nothing; everything else is rendered
// with its suggestions, plus the catalog entry in verbose mode.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose))

	if !a.verbose {
		return
	}
	id, ok := classifyError(err)
	if !ok {
		return
	}
	if rendered, renderErr := issue.Get(id).Render(issueStyle(a.stderr)); renderErr == nil {
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay formats an error for user-friendly display.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// classifyError maps a failure to its issue catalog entry.
func classifyError(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, interpreter.ErrNotFound):
		return issue.InterpreterNotFoundId, true
	case errors.Is(err, requirements.ErrNotFound):
		return issue.RequirementsNotFoundId, true
	case errors.Is(err, launcher.ErrEntryPointNotFound):
		return issue.EntryPointNotFoundId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	}

	var se *bootstrap.StageError
	if errors.As(err, &se) {
		switch se.Kind {
		case bootstrap.KindVersionTooLow:
			return issue.VersionTooLowId, true
		case bootstrap.KindCreationFailure:
			return issue.VenvCreationFailedId, true
		case bootstrap.KindInstallFailure:
			return issue.InstallFailedId, true
		case bootstrap.KindLaunchFailure:
			return issue.LaunchFailedId, true
		case bootstrap.KindNotFound:
			return issue.InterpreterNotFoundId, true
		}
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && (ae.Operation == "load configuration" || ae.Operation == "validate configuration") {
		return issue.ConfigLoadFailedId, true
	}
	return 0, false
}

// issueStyle picks the glamour style for w: colored on a terminal, plain
// otherwise.
func issueStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return issue.StyleDark
	}
	return issue.StyleNoTTY
}
