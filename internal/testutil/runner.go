// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"sync"

	"github.com/pyboot/pyboot/internal/runtime"
)

// FakeRunner is a runtime.Runner that records commands instead of running
// them. Respond, when set, decides each Result; otherwise every command
// succeeds with empty output.
type FakeRunner struct {
	Respond func(cmd runtime.Command) *runtime.Result

	mu       sync.Mutex
	commands []runtime.Command
}

// Run records cmd and returns the scripted Result.
func (f *FakeRunner) Run(_ context.Context, cmd runtime.Command) *runtime.Result {
	return f.record(cmd)
}

// Capture records cmd and returns the scripted Result.
func (f *FakeRunner) Capture(_ context.Context, cmd runtime.Command) *runtime.Result {
	return f.record(cmd)
}

// Commands returns a copy of the recorded commands.
func (f *FakeRunner) Commands() []runtime.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runtime.Command(nil), f.commands...)
}

func (f *FakeRunner) record(cmd runtime.Command) *runtime.Result {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if f.Respond == nil {
		return runtime.NewSuccessResult()
	}
	return f.Respond(cmd)
}
