// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
)

type (
	// Command describes a host process to execute.
	Command struct {
		// Path is the executable name or path. Bare names are resolved via PATH.
		Path string
		// Args are the arguments after the executable name.
		Args []string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env is the full child environment in KEY=VALUE form; nil inherits
		// the parent environment.
		Env []string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		// ForwardSignals relays SIGINT and SIGTERM received by this process to
		// the child for as long as it runs.
		ForwardSignals bool
	}

	// Runner executes host commands.
	Runner interface {
		// Run streams the child's I/O through the Command's readers and writers.
		Run(ctx context.Context, cmd Command) *Result
		// Capture buffers stdout and stderr into the Result.
		Capture(ctx context.Context, cmd Command) *Result
	}

	// HostRunner executes commands with os/exec.
	HostRunner struct{}
)

// NewHostRunner creates a Runner backed by os/exec.
func NewHostRunner() *HostRunner {
	return &HostRunner{}
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Run executes cmd with its configured streams and waits for it to exit.
func (r *HostRunner) Run(ctx context.Context, cmd Command) *Result {
	c := r.build(ctx, cmd)
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	if err := c.Start(); err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to start %s: %w", cmd.Path, err))
	}

	if cmd.ForwardSignals {
		stop := forwardSignals(c.Process)
		defer stop()
	}

	return resultFromWait(c.Wait())
}

// Capture executes cmd and buffers its output.
func (r *HostRunner) Capture(ctx context.Context, cmd Command) *Result {
	c := r.build(ctx, cmd)
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	var result *Result
	if err := c.Start(); err != nil {
		result = NewErrorResult(1, fmt.Errorf("failed to start %s: %w", cmd.Path, err))
	} else {
		result = resultFromWait(c.Wait())
	}
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (r *HostRunner) build(ctx context.Context, cmd Command) *exec.Cmd {
	// Signal-forwarded children own their lifetime: cancelling ctx must not
	// kill a program the user is interacting with.
	var c *exec.Cmd
	if cmd.ForwardSignals {
		c = exec.Command(cmd.Path, cmd.Args...) //nolint:noctx // lifetime is governed by forwarded signals
	} else {
		c = exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	}
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	return c
}

func resultFromWait(err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewExitCodeResult(ExitCode(exitErr.ExitCode()).Normalize())
	}
	return NewErrorResult(1, fmt.Errorf("failed to execute command: %w", err))
}

// forwardSignals relays interrupt and termination signals to proc until the
// returned stop function is called.
func forwardSignals(proc *os.Process) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = proc.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
