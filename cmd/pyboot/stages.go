// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/pyboot/pyboot/internal/interpreter"

	"github.com/spf13/cobra"
)

func newLocateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the Python interpreter that would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			interp, err := s.pipeline.Locate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, interp.Name)
			return nil
		},
	}
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [INTERPRETER]",
		Short: "Verify the interpreter meets the minimum version",
		Long: `Verify the interpreter meets the minimum version.

Without an argument the interpreter is located the same way the bootstrap
does it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			interp, err := resolveInterpreter(cmd, s, args)
			if err != nil {
				return err
			}
			version, err := s.pipeline.Validate(cmd.Context(), interp)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), version)
			return nil
		},
	}
}

func newProvisionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "provision [INTERPRETER]",
		Short: "Create the virtual environment if it does not exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			interp, err := resolveInterpreter(cmd, s, args)
			if err != nil {
				return err
			}
			if _, err = s.pipeline.Provision(cmd.Context(), interp); err != nil {
				return err
			}
			return nil
		},
	}
}

func newInstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the requirements into the virtual environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			_, err = s.pipeline.Install(cmd.Context())
			return err
		},
	}
}

func newLaunchCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch [-- program args...]",
		Short: "Run the entry point inside the existing virtual environment",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			code, err := s.pipeline.Launch(cmd.Context(), args)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if !code.IsSuccess() {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newRunCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- program args...]",
		Short: "Run the full bootstrap, ignoring SKIP_MAIN",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, app, args, false)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// resolveInterpreter uses the explicit argument when given, otherwise locates
// one the same way the pipeline does.
func resolveInterpreter(cmd *cobra.Command, s *session, args []string) (interpreter.Interpreter, error) {
	if len(args) == 1 {
		return interpreter.Interpreter{Name: args[0], Path: args[0]}, nil
	}
	return s.pipeline.Locate(cmd.Context())
}
