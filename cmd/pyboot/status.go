// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pyboot/pyboot/internal/app/bootstrap"
	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/interpreter"
	"github.com/pyboot/pyboot/internal/requirements"
	"github.com/pyboot/pyboot/internal/runtime"
	"github.com/pyboot/pyboot/internal/venv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

type (
	// statusReport describes what a bootstrap would find without changing
	// anything on disk.
	statusReport struct {
		Interpreter  interpreterStatus  `yaml:"interpreter"`
		Environment  environmentStatus  `yaml:"environment"`
		Requirements requirementsStatus `yaml:"requirements"`
		EntryPoint   entryPointStatus   `yaml:"entry_point"`
	}

	interpreterStatus struct {
		Name    string `yaml:"name,omitempty"`
		Path    string `yaml:"path,omitempty"`
		Version string `yaml:"version,omitempty"`
		Minimum string `yaml:"minimum"`
		Error   string `yaml:"error,omitempty"`
	}

	environmentStatus struct {
		Dir            string `yaml:"dir"`
		Exists         bool   `yaml:"exists"`
		PythonVersion  string `yaml:"python_version,omitempty"`
		ActivateScript bool   `yaml:"activate_script"`
	}

	requirementsStatus struct {
		Path     string `yaml:"path"`
		Exists   bool   `yaml:"exists"`
		UpToDate bool   `yaml:"up_to_date"`
	}

	entryPointStatus struct {
		Path   string `yaml:"path"`
		Exists bool   `yaml:"exists"`
	}
)

func newStatusCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the interpreter, environment and requirements state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != outputText && output != outputYAML {
				return fmt.Errorf("unsupported output format %q (want %s or %s)", output, outputText, outputYAML)
			}

			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			report, err := collectStatus(cmd.Context(), app.Runner, s.cfg, s.pipeline)
			if err != nil {
				return err
			}

			if output == outputYAML {
				enc := yaml.NewEncoder(app.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("failed to encode status: %w", err)
				}
				return enc.Close()
			}
			renderStatus(app.stdout, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, yaml)")

	return cmd
}

func collectStatus(ctx context.Context, runner runtime.Runner, cfg *config.Config, p *bootstrap.Pipeline) (*statusReport, error) {
	report := &statusReport{}

	minimum, err := p.MinimumVersion()
	if err != nil {
		return nil, err
	}
	report.Interpreter.Minimum = minimum.Short()

	if interp, err := p.Locate(ctx); err != nil {
		report.Interpreter.Error = err.Error()
	} else {
		report.Interpreter.Name = interp.Name
		report.Interpreter.Path = interp.Path
		res := runner.Capture(ctx, runtime.Command{Path: interp.Path, Args: []string{"--version"}})
		if version, err := interpreter.ParseVersionOutput(res.Combined()); err == nil {
			report.Interpreter.Version = version.String()
		} else {
			report.Interpreter.Error = err.Error()
		}
	}

	layout := p.Layout()
	report.Environment.Dir = layout.Dir()
	exists, err := layout.Exists()
	if err != nil {
		return nil, err
	}
	report.Environment.Exists = exists
	if exists {
		report.Environment.ActivateScript = layout.HasActivateScript()
		if pc, err := venv.ReadPyvenvConfig(layout); err == nil {
			report.Environment.PythonVersion = pc.Version
		}
	}

	reqPath := p.RequirementsPath()
	report.Requirements.Path = reqPath
	content, err := os.ReadFile(reqPath)
	switch {
	case err == nil:
		report.Requirements.Exists = true
		if exists {
			stamp, err := venv.ReadStamp(layout)
			if err != nil {
				return nil, err
			}
			report.Requirements.UpToDate = stamp != "" && stamp == requirements.StampDigest(content, cfg.Install)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}

	report.EntryPoint.Path = p.EntryPointPath()
	if info, err := os.Stat(report.EntryPoint.Path); err == nil && !info.IsDir() {
		report.EntryPoint.Exists = true
	}

	return report, nil
}

func renderStatus(w io.Writer, r *statusReport) {
	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", statusLabelStyle.Render(label), value)
	}
	mark := func(ok bool, yes, no string) string {
		if ok {
			return SuccessStyle.Render("✓ " + yes)
		}
		return WarningStyle.Render("✗ " + no)
	}

	fmt.Fprintln(w, TitleStyle.Render("Interpreter"))
	if r.Interpreter.Error != "" {
		line("error", ErrorStyle.Render(r.Interpreter.Error))
	}
	if r.Interpreter.Name != "" {
		line("name", r.Interpreter.Name)
		line("path", CmdStyle.Render(r.Interpreter.Path))
	}
	if r.Interpreter.Version != "" {
		line("version", r.Interpreter.Version)
	}
	line("minimum", r.Interpreter.Minimum)

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Environment"))
	line("dir", CmdStyle.Render(r.Environment.Dir))
	line("state", mark(r.Environment.Exists, "exists", "not created"))
	if r.Environment.Exists {
		if r.Environment.PythonVersion != "" {
			line("python", r.Environment.PythonVersion)
		}
		line("activate", mark(r.Environment.ActivateScript, "present", "missing"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Requirements"))
	line("file", CmdStyle.Render(r.Requirements.Path))
	line("state", mark(r.Requirements.Exists, "exists", "not found"))
	if r.Requirements.Exists {
		line("installed", mark(r.Requirements.UpToDate, "up to date", "pending"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Entry point"))
	line("file", CmdStyle.Render(r.EntryPoint.Path))
	line("state", mark(r.EntryPoint.Exists, "exists", "not found"))
}
