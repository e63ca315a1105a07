// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrUnparsableVersion is returned when an interpreter's version output or a
// configured version string cannot be understood.
var ErrUnparsableVersion = errors.New("unparsable python version")

var versionOutputPattern = regexp.MustCompile(`Python\s+([0-9]+)\.([0-9]+)(?:\.([0-9]+))?`)

// Version is a Python release number. Pre-release suffixes are ignored.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "3", "3.8" or "3.8.10". Missing components are zero.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableVersion, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q", ErrUnparsableVersion, s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ParseVersionOutput extracts the version from `python --version` output,
// for example "Python 3.12.1" or "Python 3.13.0rc2".
func ParseVersionOutput(output string) (Version, error) {
	m := versionOutputPattern.FindStringSubmatch(output)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableVersion, strings.TrimSpace(output))
	}

	v := Version{}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// Compare returns -1, 0 or +1 depending on whether v is lower than, equal to
// or higher than other.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// AtLeast reports whether v >= minimum.
func (v Version) AtLeast(minimum Version) bool {
	return v.Compare(minimum) >= 0
}

// String renders the full X.Y.Z form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Short renders X.Y, or X.Y.Z when the patch level is significant.
func (v Version) Short() string {
	if v.Patch != 0 {
		return v.String()
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// semver renders v in the "vX.Y.Z" form golang.org/x/mod/semver orders.
func (v Version) semver() string {
	return "v" + v.String()
}
