// SPDX-License-Identifier: MPL-2.0

package requirements

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/issue"
	"github.com/pyboot/pyboot/internal/runtime"
	"github.com/pyboot/pyboot/internal/venv"
)

var (
	// ErrNotFound is returned when the requirements file does not exist.
	ErrNotFound = errors.New("requirements file not found")
	// ErrInstallFailed is returned when pip exits non-zero.
	ErrInstallFailed = errors.New("dependency installation failed")
)

type (
	// Installer runs pip inside a virtual environment.
	Installer struct {
		runner runtime.Runner
		logger *slog.Logger
		cfg    config.InstallConfig
		output io.Writer
	}

	// Report summarizes an Install call.
	Report struct {
		// Accelerated lists the specs installed from the CPU-only index.
		Accelerated []string
		// Skipped is set when the requirements matched the install stamp.
		Skipped bool
		// Digest identifies the installed requirements and settings.
		Digest string
	}
)

// NewInstaller creates an Installer. pip's own output is written to output.
func NewInstaller(runner runtime.Runner, logger *slog.Logger, cfg config.InstallConfig, output io.Writer) *Installer {
	if output == nil {
		output = io.Discard
	}
	return &Installer{runner: runner, logger: logger, cfg: cfg, output: output}
}

// Install installs the requirements file at path into layout's environment.
// No pip command runs when the file is missing.
func (i *Installer) Install(ctx context.Context, layout venv.Layout, path string) (Report, error) {
	content, err := readRequirements(path)
	if err != nil {
		return Report{}, err
	}

	reqs, err := Parse(bytes.NewReader(content))
	if err != nil {
		return Report{}, issue.NewErrorContext().
			WithOperation("read requirements").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	accelerated, _ := Partition(reqs, i.cfg.AcceleratedPackages)

	report := Report{Digest: StampDigest(content, i.cfg)}
	for _, r := range accelerated {
		report.Accelerated = append(report.Accelerated, r.Spec)
	}

	if i.cfg.SkipUnchanged {
		stamp, err := venv.ReadStamp(layout)
		if err != nil {
			i.logger.Warn("ignoring unreadable install stamp", "error", err)
		}
		if stamp != "" && stamp == report.Digest {
			i.logger.Info("Requirements unchanged, skipping install", "file", path)
			report.Skipped = true
			return report, nil
		}
	}

	python := layout.Python()

	if i.cfg.UpgradePip {
		i.logger.Info("Upgrading pip")
		if err := i.pip(ctx, python, path, "install", "--upgrade", "pip"); err != nil {
			return report, err
		}
	}

	if len(report.Accelerated) > 0 {
		i.logger.Info("Installing "+strings.Join(report.Accelerated, " ")+" from CPU-only index",
			"index", i.cfg.CPUIndexURL)
		args := append([]string{"install", "--index-url", i.cfg.CPUIndexURL}, report.Accelerated...)
		if err := i.pip(ctx, python, path, args...); err != nil {
			return report, err
		}
	}

	i.logger.Info("Installing dependencies", "file", path)
	if err := i.pip(ctx, python, path, "install", "-r", path); err != nil {
		return report, err
	}

	if err := venv.WriteStamp(layout, report.Digest); err != nil {
		i.logger.Warn("dependencies installed but stamp not written", "error", err)
	}
	return report, nil
}

// StampDigest returns the digest Install records for content under cfg.
func StampDigest(content []byte, cfg config.InstallConfig) string {
	return venv.Digest(content, cfg.CPUIndexURL, strings.Join(cfg.AcceleratedPackages, ","))
}

func (i *Installer) pip(ctx context.Context, python, reqPath string, args ...string) error {
	cmd := runtime.Command{
		Path:   python,
		Args:   append([]string{"-m", "pip"}, args...),
		Stdout: i.output,
		Stderr: i.output,
	}
	i.logger.Debug("running pip", "command", cmd.String())

	res := i.runner.Run(ctx, cmd)
	if !res.Failed() {
		return nil
	}

	cause := res.Error
	if cause == nil {
		cause = fmt.Errorf("%s exited with status %d", cmd.String(), res.ExitCode)
	}
	return issue.NewErrorContext().
		WithOperation("install dependencies").
		WithResource(reqPath).
		WithSuggestion("Check the pip output above for the failing package").
		WithSuggestion("Verify network access to the package index").
		Wrap(fmt.Errorf("%w: %w", ErrInstallFailed, cause)).
		BuildError()
}

func readRequirements(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, issue.NewErrorContext().
			WithOperation("install dependencies").
			WithResource(path).
			WithSuggestion("Create " + path + " listing the project's packages").
			WithSuggestion("Set REQUIREMENTS to the correct file").
			Wrap(fmt.Errorf("%w: %s", ErrNotFound, path)).
			BuildError()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}
	return content, nil
}
