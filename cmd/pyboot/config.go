// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pyboot/pyboot/internal/config"
	"github.com/pyboot/pyboot/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `pyboot config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create pyboot configuration",
		Long: `Inspect and create pyboot configuration.

Values are resolved from, in increasing precedence: built-in defaults,
` + CmdStyle.Render("pyboot.cue") + ` in the working directory (or --config), environment
variables, and command-line flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			_, source, err := config.LoadWithSource(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgPath})
			if err != nil {
				return err
			}
			if source == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, source)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a pyboot.cue with the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.ConfigFileName + "." + config.ConfigFileExt
			}
			return initConfig(app, path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func initConfig(app *App, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return issue.NewErrorContext().
				WithOperation("create configuration").
				WithResource(path).
				WithSuggestion("Pass --force to overwrite it").
				Wrap(fs.ErrExist).
				BuildError()
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
	return nil
}
