// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsWindows reports whether the current host is Windows.
func IsWindows() bool {
	return runtime.GOOS == Windows
}

// ScriptsDirName returns the name of the directory inside a virtual
// environment that holds executables and activation scripts.
func ScriptsDirName(goos string) string {
	if goos == Windows {
		return "Scripts"
	}
	return "bin"
}

// ExecutableName appends the platform executable suffix to name when it is
// missing.
func ExecutableName(goos, name string) string {
	if goos == Windows && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}
