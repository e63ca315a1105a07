// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PyvenvConfig is the parsed content of pyvenv.cfg.
type PyvenvConfig struct {
	// Home is the directory of the interpreter that created the environment.
	Home string
	// Version is the creating interpreter's version, e.g. "3.12.1".
	Version string
	// IncludeSystemSitePackages mirrors --system-site-packages.
	IncludeSystemSitePackages bool
	// Values holds every key, including the ones above.
	Values map[string]string
}

// ReadPyvenvConfig parses layout's pyvenv.cfg. The format is one
// `key = value` pair per line.
func ReadPyvenvConfig(layout Layout) (*PyvenvConfig, error) {
	f, err := os.Open(layout.ConfigFile())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &PyvenvConfig{Values: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cfg.Values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", layout.ConfigFile(), err)
	}

	cfg.Home = cfg.Values["home"]
	cfg.Version = cfg.Values["version"]
	if cfg.Version == "" {
		// virtualenv writes version_info instead.
		cfg.Version = cfg.Values["version_info"]
	}
	cfg.IncludeSystemSitePackages = strings.EqualFold(cfg.Values["include-system-site-packages"], "true")
	return cfg, nil
}
