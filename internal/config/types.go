// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// DefaultVenvDir is the environment directory used when VENV_DIR is unset.
	DefaultVenvDir = ".venv"
	// DefaultRequirements is the requirements file used when REQUIREMENTS is unset.
	DefaultRequirements = "requirements.txt"
	// DefaultEntryPoint is the program launched after setup.
	DefaultEntryPoint = "main.py"
	// DefaultMinVersion is the lowest accepted interpreter major.minor.
	DefaultMinVersion = "3.8"
	// DefaultCPUIndexURL serves CPU-only builds of the accelerated packages.
	DefaultCPUIndexURL = "https://download.pytorch.org/whl/cpu"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	minVersionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+){0,2}$`)
)

type (
	// Config is the explicit configuration record handed to every stage.
	Config struct {
		// VenvDir is the virtual environment directory.
		VenvDir string `json:"venv_dir" mapstructure:"venv_dir"`
		// Requirements is the requirements file path.
		Requirements string `json:"requirements" mapstructure:"requirements"`
		// EntryPoint is the program launched inside the environment.
		EntryPoint string `json:"entry_point" mapstructure:"entry_point"`
		// SkipMain stops the root command from running the pipeline.
		// Resolved separately from Viper's bool decoding; see skipMainSet.
		SkipMain bool `json:"skip_main" mapstructure:"-"`

		Interpreter InterpreterConfig `json:"interpreter" mapstructure:"interpreter"`
		Install     InstallConfig     `json:"install" mapstructure:"install"`
		UI          UIConfig          `json:"ui" mapstructure:"ui"`
	}

	// InterpreterConfig controls interpreter lookup and validation.
	InterpreterConfig struct {
		// Path selects an explicit interpreter and bypasses Candidates.
		Path string `json:"path" mapstructure:"path"`
		// Candidates are tried in order on PATH.
		Candidates []string `json:"candidates" mapstructure:"candidates"`
		// MinVersion is the lowest accepted version ("3.8").
		MinVersion string `json:"min_version" mapstructure:"min_version"`
		// HonorRequiresPython raises MinVersion from pyproject.toml.
		HonorRequiresPython bool `json:"honor_requires_python" mapstructure:"honor_requires_python"`
	}

	// InstallConfig controls dependency installation.
	InstallConfig struct {
		// CPUIndexURL is the package index for AcceleratedPackages.
		CPUIndexURL string `json:"cpu_index_url" mapstructure:"cpu_index_url"`
		// AcceleratedPackages are installed from CPUIndexURL.
		AcceleratedPackages []string `json:"accelerated_packages" mapstructure:"accelerated_packages"`
		// UpgradePip upgrades pip inside the environment before installing.
		UpgradePip bool `json:"upgrade_pip" mapstructure:"upgrade_pip"`
		// SkipUnchanged skips pip when the requirements digest matches the
		// last successful install.
		SkipUnchanged bool `json:"skip_unchanged" mapstructure:"skip_unchanged"`
	}

	// UIConfig configures diagnostics.
	UIConfig struct {
		// Verbose enables debug diagnostics and error chains.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// LogFile additionally records diagnostics as JSON.
		LogFile string `json:"log_file" mapstructure:"log_file"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		VenvDir:      DefaultVenvDir,
		Requirements: DefaultRequirements,
		EntryPoint:   DefaultEntryPoint,
		Interpreter: InterpreterConfig{
			Candidates:          []string{"python3", "python"},
			MinVersion:          DefaultMinVersion,
			HonorRequiresPython: true,
		},
		Install: InstallConfig{
			CPUIndexURL:         DefaultCPUIndexURL,
			AcceleratedPackages: []string{"torch"},
		},
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the constraints every stage relies on.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.VenvDir) == "" {
		errs = append(errs, errors.New("venv_dir must not be empty"))
	}
	if strings.TrimSpace(c.Requirements) == "" {
		errs = append(errs, errors.New("requirements must not be empty"))
	}
	if strings.TrimSpace(c.EntryPoint) == "" {
		errs = append(errs, errors.New("entry_point must not be empty"))
	}
	if c.Interpreter.Path == "" && len(c.Interpreter.Candidates) == 0 {
		errs = append(errs, errors.New("interpreter.candidates must not be empty"))
	}
	if !minVersionPattern.MatchString(c.Interpreter.MinVersion) {
		errs = append(errs, fmt.Errorf("interpreter.min_version %q is not a version number", c.Interpreter.MinVersion))
	}
	if u, err := url.Parse(c.Install.CPUIndexURL); err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("install.cpu_index_url %q must be an absolute URL", c.Install.CPUIndexURL))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
