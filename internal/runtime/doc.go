// SPDX-License-Identifier: MPL-2.0

// Package runtime executes host processes on behalf of the bootstrap stages.
//
// Every stage that shells out (interpreter version checks, venv creation, pip
// installs and the final program launch) goes through a Runner so tests can
// substitute a recording implementation. Run streams the child's output to the
// configured writers; Capture buffers it. Both report the outcome as a Result
// whose ExitCode mirrors the child's exit status and whose Error is reserved
// for infrastructure failures (binary missing, fork failure).
package runtime
