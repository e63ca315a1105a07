// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"errors"
	"fmt"

	"github.com/pyboot/pyboot/internal/interpreter"
	"github.com/pyboot/pyboot/internal/launcher"
	"github.com/pyboot/pyboot/internal/requirements"
	"github.com/pyboot/pyboot/internal/venv"
)

// Stage names one step of the pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageLocate    Stage = "locate"
	StageValidate  Stage = "validate"
	StageProvision Stage = "provision"
	StageInstall   Stage = "install"
	StageLaunch    Stage = "launch"
)

// Kind classifies a stage failure.
type Kind int

const (
	// KindNotFound covers a missing interpreter, requirements file or
	// entry point.
	KindNotFound Kind = iota + 1
	// KindVersionTooLow covers an interpreter below the minimum version or
	// one whose version cannot be determined.
	KindVersionTooLow
	// KindCreationFailure covers a virtual environment that could not be
	// created.
	KindCreationFailure
	// KindInstallFailure covers a failed pip invocation.
	KindInstallFailure
	// KindLaunchFailure covers a program that could not be started.
	KindLaunchFailure
)

// StageError reports which stage failed and how.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindVersionTooLow:
		return "VersionTooLow"
	case KindCreationFailure:
		return "CreationFailure"
	case KindInstallFailure:
		return "InstallFailure"
	case KindLaunchFailure:
		return "LaunchFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying stage error.
func (e *StageError) Unwrap() error { return e.Err }

// Classify maps a stage's error to a Kind. Errors that carry no recognized
// sentinel take the default kind of the stage that returned them.
func Classify(stage Stage, err error) Kind {
	switch {
	case errors.Is(err, interpreter.ErrNotFound),
		errors.Is(err, requirements.ErrNotFound),
		errors.Is(err, launcher.ErrEntryPointNotFound):
		return KindNotFound
	case errors.Is(err, interpreter.ErrVersionTooLow),
		errors.Is(err, interpreter.ErrUnparsableVersion):
		return KindVersionTooLow
	case errors.Is(err, venv.ErrCreateFailed):
		return KindCreationFailure
	case errors.Is(err, requirements.ErrInstallFailed):
		return KindInstallFailure
	case errors.Is(err, launcher.ErrLaunchFailed):
		return KindLaunchFailure
	}

	switch stage {
	case StageLocate:
		return KindNotFound
	case StageValidate:
		return KindVersionTooLow
	case StageProvision:
		return KindCreationFailure
	case StageInstall:
		return KindInstallFailure
	default:
		return KindLaunchFailure
	}
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: Classify(stage, err), Err: err}
}
