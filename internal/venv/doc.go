// SPDX-License-Identifier: MPL-2.0

// Package venv provisions and activates Python virtual environments.
//
// An existing environment directory is reused as is; a missing one is created
// with `<interpreter> -m venv`. Activation sources the environment's
// activation script in an embedded POSIX shell and returns the resulting
// exported variables, so the launched program sees the same environment an
// interactive `source bin/activate` would produce.
package venv
