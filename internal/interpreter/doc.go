// SPDX-License-Identifier: MPL-2.0

// Package interpreter finds a Python interpreter on the host and checks that
// it is recent enough.
//
// A Locator walks a prioritized candidate list (or a single explicit path)
// through PATH lookup. A Validator runs `<interpreter> --version`, parses the
// reported version and compares it with the effective minimum, which may be
// raised by the `requires-python` field of a project's pyproject.toml.
package interpreter
