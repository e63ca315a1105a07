// SPDX-License-Identifier: MPL-2.0

// Package bootstrap orchestrates the pyboot stages: locate an interpreter,
// validate its version, provision the virtual environment, install the
// requirements and launch the entry point. It decouples CLI-layer concerns
// from the stage packages and tags every failure with the stage that
// produced it.
package bootstrap
