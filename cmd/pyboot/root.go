// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pyboot/pyboot/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyboot [flags] [program args...]",
		Short: "Bootstrap a Python virtual environment and run the project",
		Long: TitleStyle.Render("pyboot") + SubtitleStyle.Render(" - Python project bootstrapper") + `

pyboot finds a Python 3 interpreter, creates a virtual environment next to
the project, installs its requirements and runs the entry point inside it.
Every step is idempotent: an existing environment is reused.

` + SubtitleStyle.Render("Environment:") + `
  VENV_DIR       environment directory (default .venv)
  REQUIREMENTS   requirements file (default requirements.txt)
  SKIP_MAIN      set to skip the whole bootstrap
  PYBOOT_PYTHON  explicit interpreter path

` + SubtitleStyle.Render("Examples:") + `
  pyboot                    Set up the environment and run main.py
  pyboot --port 8080        Pass arguments to main.py
  pyboot -- status -v       Pass words pyboot would claim to main.py
  pyboot status             Show what the bootstrap would reuse
  pyboot config show        Show the effective configuration`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, app, args, true)
		},
	}
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output (env PYBOOT_VERBOSE)")
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./pyboot.cue when present)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newLocateCommand(app),
		newCheckCommand(app),
		newProvisionCommand(app),
		newInstallCommand(app),
		newLaunchCommand(app),
		newRunCommand(app),
		newStatusCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with its status.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI with production dependencies and returns the process
// exit status.
func Main() int {
	app := NewApp(Dependencies{})
	return run(context.Background(), app, NewRootCommand(app), os.Args[1:])
}

func run(ctx context.Context, app *App, rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(routeArgs(rootCmd, args))

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return int(exitErr.Code.Normalize())
	}
	return 1
}

// builtinCommands are added by cobra and fang at execution time, after
// routeArgs has run.
var builtinCommands = []string{
	"help",
	"completion",
	"man",
	cobra.ShellCompRequestCmd,
	cobra.ShellCompNoDescRequestCmd,
}

// routeArgs makes the root command forward program arguments verbatim.
// Leading flags that pyboot defines stay with pyboot; the first word after
// them selects a subcommand when it names one. Everything from the first
// other word on is placed behind "--" so cobra neither parses nor routes it.
func routeArgs(root *cobra.Command, args []string) []string {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" || arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}
		f, inline, ok := lookupRootFlag(root, arg)
		if !ok {
			break
		}
		i++
		if f != nil && !inline && f.NoOptDefVal == "" {
			i++
		}
	}
	if i >= len(args) || args[i] == "--" || isSubcommand(root, args[i]) {
		return args
	}

	routed := make([]string, 0, len(args)+1)
	routed = append(routed, args[:i]...)
	routed = append(routed, "--")
	return append(routed, args[i:]...)
}

// lookupRootFlag resolves arg to one of the root command's flags. inline
// reports whether the value is attached to arg. A nil flag with ok set is
// the help or version flag, which cobra registers later.
func lookupRootFlag(root *cobra.Command, arg string) (f *pflag.Flag, inline, ok bool) {
	switch arg {
	case "-h", "--help", "--version":
		return nil, false, true
	}

	lookup := func(name string) *pflag.Flag {
		if f := root.Flags().Lookup(name); f != nil {
			return f
		}
		return root.PersistentFlags().Lookup(name)
	}
	shorthand := func(name string) *pflag.Flag {
		if f := root.Flags().ShorthandLookup(name); f != nil {
			return f
		}
		return root.PersistentFlags().ShorthandLookup(name)
	}

	if long, isLong := strings.CutPrefix(arg, "--"); isLong {
		name, _, hasValue := strings.Cut(long, "=")
		f = lookup(name)
		return f, hasValue, f != nil
	}
	if len(arg) < 2 {
		return nil, false, false
	}
	f = shorthand(arg[1:2])
	return f, len(arg) > 2, f != nil
}

func isSubcommand(root *cobra.Command, name string) bool {
	if slices.Contains(builtinCommands, name) {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// runBootstrap runs the full pipeline. The root command honors SKIP_MAIN;
// the explicit run subcommand does not.
func runBootstrap(cmd *cobra.Command, app *App, args []string, honorSkip bool) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if honorSkip && s.cfg.SkipMain {
		s.logger.Info("SKIP_MAIN is set, skipping bootstrap")
		return nil
	}

	st, err := s.pipeline.Run(cmd.Context(), args)
	if err != nil {
		return &ExitError{Code: st.ExitCode, Err: err}
	}
	if !st.ExitCode.IsSuccess() {
		return &ExitError{Code: st.ExitCode}
	}
	return nil
}
