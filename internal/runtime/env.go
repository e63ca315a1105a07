// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EnvToSlice converts a map of environment variables to KEY=VALUE strings,
// sorted by key so child environments are deterministic.
func EnvToSlice(env map[string]string) []string {
	keys := maps.Keys(env)
	slices.Sort(keys)

	result := make([]string, len(keys))
	for i, k := range keys {
		result[i] = k + "=" + env[k]
	}
	return result
}

// SliceToEnv parses KEY=VALUE strings into a map. Entries without a separator
// are dropped; later entries override earlier ones.
func SliceToEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// HostEnv returns the current process environment as a map.
func HostEnv() map[string]string {
	return SliceToEnv(os.Environ())
}

// PrependPath returns pathList with dir placed first, using the platform list
// separator.
func PrependPath(dir, pathList string) string {
	if pathList == "" {
		return dir
	}
	return dir + string(os.PathListSeparator) + pathList
}
