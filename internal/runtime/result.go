// SPDX-License-Identifier: MPL-2.0

package runtime

// Result is the outcome of a host process.
type Result struct {
	// ExitCode is the child's exit status. It is 1 when the child could not
	// be started at all.
	ExitCode ExitCode
	// Error is set only for infrastructure failures. A child that ran and
	// exited non-zero has a nil Error.
	Error error
	// Output holds captured stdout (Capture only).
	Output string
	// ErrOutput holds captured stderr (Capture only).
	ErrOutput string
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Failed reports whether the process did not complete successfully, either
// because it could not run or because it exited non-zero.
func (r *Result) Failed() bool {
	return r.Error != nil || !r.ExitCode.IsSuccess()
}

// Combined returns captured stdout followed by captured stderr.
func (r *Result) Combined() string {
	return r.Output + r.ErrOutput
}
