// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pyboot.
//
// The root command runs the whole bootstrap (locate, validate, provision,
// install, launch) and exits with the launched program's status. Each stage
// is also available as its own subcommand, alongside status and config
// inspection.
package cmd
