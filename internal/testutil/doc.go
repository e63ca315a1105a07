// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* helpers it provides FakePython, a shell-script stand-in
// for a Python interpreter that implements just enough of `--version`,
// `-m venv` and `-m pip` for the bootstrap stages to run end to end, and
// FakeRunner, a scripted runtime.Runner.
package testutil
