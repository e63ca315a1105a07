// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyboot/pyboot/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// AppName is the application name.
	AppName = "pyboot"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "pyboot"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// maxConfigFileSize bounds the CUE file read into memory.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// envBindings maps configuration keys to the environment variables that set
// them, in precedence order.
var envBindings = map[string][]string{
	"venv_dir":                {"VENV_DIR", "PYBOOT_VENV_DIR"},
	"requirements":            {"REQUIREMENTS", "PYBOOT_REQUIREMENTS"},
	"skip_main":               {"SKIP_MAIN", "PYBOOT_SKIP_MAIN"},
	"entry_point":             {"PYBOOT_ENTRY_POINT"},
	"interpreter.path":        {"PYBOOT_PYTHON"},
	"interpreter.min_version": {"PYBOOT_MIN_PYTHON"},
	"install.cpu_index_url":   {"PYBOOT_CPU_INDEX_URL"},
	"ui.verbose":              {"PYBOOT_VERBOSE"},
	"ui.log_file":             {"PYBOOT_LOG_FILE"},
}

// flagBindings maps command-line flag names to configuration keys.
var flagBindings = map[string]string{
	"venv-dir":     "venv_dir",
	"requirements": "requirements",
	"entry-point":  "entry_point",
	"python":       "interpreter.path",
	"min-python":   "interpreter.min_version",
	"verbose":      "ui.verbose",
	"log-file":     "ui.log_file",
}

// loadWithOptions performs option-driven config loading. It returns the
// resolved configuration and the path of the CUE file that was read, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("venv_dir", defaults.VenvDir)
	v.SetDefault("requirements", defaults.Requirements)
	v.SetDefault("entry_point", defaults.EntryPoint)
	v.SetDefault("skip_main", "")
	v.SetDefault("interpreter.path", defaults.Interpreter.Path)
	v.SetDefault("interpreter.candidates", defaults.Interpreter.Candidates)
	v.SetDefault("interpreter.min_version", defaults.Interpreter.MinVersion)
	v.SetDefault("interpreter.honor_requires_python", defaults.Interpreter.HonorRequiresPython)
	v.SetDefault("install.cpu_index_url", defaults.Install.CPUIndexURL)
	v.SetDefault("install.accelerated_packages", defaults.Install.AcceleratedPackages)
	v.SetDefault("install.upgrade_pip", defaults.Install.UpgradePip)
	v.SetDefault("install.skip_unchanged", defaults.Install.SkipUnchanged)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.log_file", defaults.UI.LogFile)

	resolvedPath, err := mergeConfigFile(v, opts)
	if err != nil {
		return nil, "", err
	}

	// Bind in key order so the first failure reported is stable.
	envKeys := maps.Keys(envBindings)
	slices.Sort(envKeys)
	for _, key := range envKeys {
		if err := v.BindEnv(append([]string{key}, envBindings[key]...)...); err != nil {
			return nil, "", fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if opts.Flags != nil {
		flagNames := maps.Keys(flagBindings)
		slices.Sort(flagNames)
		for _, flagName := range flagNames {
			key := flagBindings[flagName]
			if f := opts.Flags.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SkipMain = skipMainSet(v)

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Run 'pyboot config show' to inspect the effective values").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// mergeConfigFile loads the explicit config file, or pyboot.cue from the
// working directory when present. A missing default file is not an error.
func mergeConfigFile(v *viper.Viper, opts LoadOptions) (string, error) {
	path := opts.ConfigFilePath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(opts.Dir, ConfigFileName+"."+ConfigFileExt)
	}

	if !fileExists(path) {
		if explicit {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'pyboot config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		return "", nil
	}

	if err := loadCUEIntoViper(v, path); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			Wrap(err).
			BuildError()
	}
	return path, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d exceeds limit of %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into "path: message" lines.
func formatCUEError(err error, filePath string) error {
	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		pathStr := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if pathStr != "" && !strings.HasPrefix(msg, pathStr) {
			msg = pathStr + ": " + msg
		}
		lines = append(lines, msg)
	}
	return fmt.Errorf("%s: %s", filePath, strings.Join(lines, "; "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg in the pyboot.cue format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pyboot configuration\n\n")
	fmt.Fprintf(&sb, "venv_dir:     %q\n", cfg.VenvDir)
	fmt.Fprintf(&sb, "requirements: %q\n", cfg.Requirements)
	fmt.Fprintf(&sb, "entry_point:  %q\n", cfg.EntryPoint)
	fmt.Fprintf(&sb, "skip_main:    %v\n", cfg.SkipMain)

	sb.WriteString("\ninterpreter: {\n")
	if cfg.Interpreter.Path != "" {
		fmt.Fprintf(&sb, "\tpath: %q\n", cfg.Interpreter.Path)
	}
	fmt.Fprintf(&sb, "\tcandidates: %s\n", cueList(cfg.Interpreter.Candidates))
	fmt.Fprintf(&sb, "\tmin_version: %q\n", cfg.Interpreter.MinVersion)
	fmt.Fprintf(&sb, "\thonor_requires_python: %v\n", cfg.Interpreter.HonorRequiresPython)
	sb.WriteString("}\n")

	sb.WriteString("\ninstall: {\n")
	fmt.Fprintf(&sb, "\tcpu_index_url: %q\n", cfg.Install.CPUIndexURL)
	fmt.Fprintf(&sb, "\taccelerated_packages: %s\n", cueList(cfg.Install.AcceleratedPackages))
	fmt.Fprintf(&sb, "\tupgrade_pip: %v\n", cfg.Install.UpgradePip)
	fmt.Fprintf(&sb, "\tskip_unchanged: %v\n", cfg.Install.SkipUnchanged)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	if cfg.UI.LogFile != "" {
		fmt.Fprintf(&sb, "\tlog_file: %q\n", cfg.UI.LogFile)
	}
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// RegisterFlags adds the flags understood by LoadOptions.Flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("venv-dir", DefaultVenvDir, "virtual environment directory (env VENV_DIR)")
	fs.String("requirements", DefaultRequirements, "requirements file (env REQUIREMENTS)")
	fs.String("entry-point", DefaultEntryPoint, "program to launch inside the environment")
	fs.String("python", "", "explicit interpreter, bypasses the candidate list (env PYBOOT_PYTHON)")
	fs.String("min-python", DefaultMinVersion, "minimum interpreter version")
	fs.String("log-file", "", "also write JSON diagnostics to this file")
}

// skipMainSet reports whether the bootstrap should be skipped. Any non-empty
// environment value counts, "0" and "false" included; the config file
// carries a plain bool.
func skipMainSet(v *viper.Viper) bool {
	for _, name := range envBindings["skip_main"] {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return v.GetBool("skip_main")
}
