// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/pyboot/pyboot/internal/platform"
)

const (
	// ActivateScriptName is the POSIX activation entry point.
	ActivateScriptName = "activate"
	// ConfigFileName is written by `python -m venv` at the environment root.
	ConfigFileName = "pyvenv.cfg"
	// StampFileName records the digest of the last installed requirements.
	StampFileName = ".pyboot-requirements"
)

// Layout locates the well-known paths inside an environment directory.
type Layout struct {
	dir  string
	goos string
}

// NewLayout returns the layout of dir for the host OS.
func NewLayout(dir string) Layout {
	return NewLayoutFor(dir, goruntime.GOOS)
}

// NewLayoutFor returns the layout of dir as created on goos.
func NewLayoutFor(dir, goos string) Layout {
	return Layout{dir: dir, goos: goos}
}

// Dir returns the environment directory as configured.
func (l Layout) Dir() string { return l.dir }

// AbsDir returns the environment directory as an absolute path.
func (l Layout) AbsDir() (string, error) {
	return filepath.Abs(l.dir)
}

// BinDir returns the directory holding the environment's executables.
func (l Layout) BinDir() string {
	return filepath.Join(l.dir, platform.ScriptsDirName(l.goos))
}

// ActivateScript returns the activation entry point.
func (l Layout) ActivateScript() string {
	return filepath.Join(l.BinDir(), ActivateScriptName)
}

// Python returns the environment's interpreter.
func (l Layout) Python() string {
	return filepath.Join(l.BinDir(), platform.ExecutableName(l.goos, "python"))
}

// ConfigFile returns the pyvenv.cfg path.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.dir, ConfigFileName)
}

// StampFile returns the requirements stamp path.
func (l Layout) StampFile() string {
	return filepath.Join(l.dir, StampFileName)
}

// Exists reports whether the environment directory exists. A regular file in
// its place is an error.
func (l Layout) Exists() (bool, error) {
	info, err := os.Stat(l.dir)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, err
	case !info.IsDir():
		return false, fmt.Errorf("%s exists and is not a directory", l.dir)
	default:
		return true, nil
	}
}

// HasActivateScript reports whether the activation entry point is present.
func (l Layout) HasActivateScript() bool {
	info, err := os.Stat(l.ActivateScript())
	return err == nil && !info.IsDir()
}
