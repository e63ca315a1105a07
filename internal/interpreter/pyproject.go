// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PyprojectFileName is the project metadata file consulted for requires-python.
const PyprojectFileName = "pyproject.toml"

type pyproject struct {
	Project struct {
		RequiresPython string `toml:"requires-python"`
	} `toml:"project"`
}

// RequiresPython reads [project].requires-python from dir/pyproject.toml and
// returns its lower bound. found is false when the file or field is absent or
// declares no lower bound.
func RequiresPython(dir string) (minimum Version, found bool, err error) {
	path := filepath.Join(dir, PyprojectFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Version{}, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if strings.TrimSpace(doc.Project.RequiresPython) == "" {
		return Version{}, false, nil
	}

	return LowerBound(doc.Project.RequiresPython)
}

// LowerBound returns the highest lower bound in a PEP 440 specifier set such
// as ">=3.9,<4" or "~=3.10". Upper bounds and exclusions are ignored.
func LowerBound(specifiers string) (minimum Version, found bool, err error) {
	for spec := range strings.SplitSeq(specifiers, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		var bound Version
		switch {
		case strings.HasPrefix(spec, ">="), strings.HasPrefix(spec, "~="):
			bound, err = ParseVersion(strings.TrimSpace(spec[2:]))
		case strings.HasPrefix(spec, "=="):
			bound, err = ParseVersion(strings.TrimSuffix(strings.TrimSpace(spec[2:]), ".*"))
		case strings.HasPrefix(spec, ">"):
			bound, err = ParseVersion(strings.TrimSpace(spec[1:]))
			bound.Patch++
		default:
			continue
		}
		if err != nil {
			return Version{}, false, fmt.Errorf("requires-python %q: %w", specifiers, err)
		}

		if !found || bound.Compare(minimum) > 0 {
			minimum = bound
			found = true
		}
	}
	return minimum, found, nil
}

// EffectiveMinimum combines the configured minimum with the project's
// requires-python bound, when honored, and returns the stricter of the two.
func EffectiveMinimum(configured string, projectDir string, honorProject bool) (Version, error) {
	minimum, err := ParseVersion(configured)
	if err != nil {
		return Version{}, err
	}
	if !honorProject {
		return minimum, nil
	}

	projectMin, found, err := RequiresPython(projectDir)
	if err != nil {
		return Version{}, err
	}
	if found && projectMin.Compare(minimum) > 0 {
		return projectMin, nil
	}
	return minimum, nil
}
