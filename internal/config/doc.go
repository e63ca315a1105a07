// SPDX-License-Identifier: MPL-2.0

// Package config resolves the pyboot configuration record.
//
// Values are layered with Viper: built-in defaults, then an optional CUE file
// (pyboot.cue in the working directory, or an explicit --config path)
// validated against the embedded #Config schema, then environment variables
// (VENV_DIR, REQUIREMENTS, SKIP_MAIN and their PYBOOT_* spellings), then
// command-line flags that were explicitly set. The resolved Config is passed
// to every bootstrap stage; nothing downstream reads the environment directly.
package config
