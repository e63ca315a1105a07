// SPDX-License-Identifier: MPL-2.0

package requirements

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	namePattern      = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)
	normalizePattern = regexp.MustCompile(`[-_.]+`)
)

// Requirement is one logical line of a requirements file.
type Requirement struct {
	// Line is the 1-based line where the entry starts.
	Line int
	// Spec is the requirement as pip accepts it on the command line: name,
	// extras, version specifiers and markers, without per-line options such
	// as --hash.
	Spec string
	// Name is the normalized project name; empty for option lines and bare
	// paths or URLs.
	Name string
	// Option is set for lines such as "-r other.txt" or "--index-url ...".
	Option bool
}

// NormalizeName applies PyPI name normalization: lowercase, with runs of
// "-", "_" and "." collapsed to "-".
func NormalizeName(name string) string {
	return normalizePattern.ReplaceAllString(strings.ToLower(name), "-")
}

// ParseFile parses the requirements file at path.
func ParseFile(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reqs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Parse reads requirements, joining backslash continuations and dropping
// comments and blank lines.
func Parse(r io.Reader) ([]Requirement, error) {
	var (
		reqs    []Requirement
		pending strings.Builder
		start   int
		lineNo  int
	)

	flush := func() {
		logical := strings.TrimSpace(stripComment(pending.String()))
		pending.Reset()
		if logical == "" {
			return
		}
		reqs = append(reqs, parseLine(start, logical))
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if pending.Len() == 0 {
			start = lineNo
		}

		if body, ok := strings.CutSuffix(line, `\`); ok {
			pending.WriteString(body)
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(line)
		flush()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return reqs, nil
}

// stripComment removes a "#" comment that starts the line or follows
// whitespace. A "#" inside a URL fragment is kept.
func stripComment(line string) string {
	for i := range len(line) {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}

func parseLine(lineNo int, logical string) Requirement {
	if strings.HasPrefix(logical, "-") {
		return Requirement{Line: lineNo, Spec: logical, Option: true}
	}

	spec := logical
	if idx := strings.Index(spec, " --"); idx >= 0 {
		spec = strings.TrimSpace(spec[:idx])
	}

	req := Requirement{Line: lineNo, Spec: spec}
	if isPathOrURL(spec) {
		return req
	}
	if m := namePattern.FindString(spec); m != "" {
		req.Name = NormalizeName(m)
	}
	return req
}

func isPathOrURL(spec string) bool {
	return strings.HasPrefix(spec, ".") ||
		strings.HasPrefix(spec, "/") ||
		strings.Contains(strings.SplitN(spec, " ", 2)[0], "://")
}

// Partition splits reqs into entries whose normalized name is in accelerated
// and everything else.
func Partition(reqs []Requirement, accelerated []string) (selected, rest []Requirement) {
	names := make(map[string]struct{}, len(accelerated))
	for _, n := range accelerated {
		names[NormalizeName(n)] = struct{}{}
	}

	for _, r := range reqs {
		if _, ok := names[r.Name]; ok && r.Name != "" {
			selected = append(selected, r)
		} else {
			rest = append(rest, r)
		}
	}
	return selected, rest
}
