// Package filter decides which loaded source files are handed to the
// analysis engine.
//
// The filter is a denylist: every marker is a regular-expression
// fragment, all markers are joined with "|" into a single
// case-sensitive pattern, and a path is excluded when that pattern
// matches anywhere in it. Markers containing metacharacters therefore
// act as patterns ("app.php" also matches "appXphp"). Literal mode
// quotes every marker and turns the filter into plain substring
// matching.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyMarker is returned when a marker is the empty string. An empty
// alternative would match, and therefore exclude, every path.
var ErrEmptyMarker = errors.New("empty exclusion marker")

// defaultMarkers lists the built-in exclusion markers: third-party
// directories, tests, entry points, caches, form handling and the
// analyzer's own sources.
var defaultMarkers = []string{
	"vendor",
	"pear",
	`\.phar`,
	`bootstrap\.php`,
	"Test",
	"AppKernel.php",
	"autoload.php",
	"cache/",
	"app.php",
	"app_dev.php",
	"Form",
	"PhpMetrics",
	"classes.php",
	`_test\.go`,
	"testdata",
	"/pkg/mod/",
	"metricsbar",
}

// DefaultMarkers returns a copy of the built-in exclusion markers.
func DefaultMarkers() []string {
	out := make([]string, len(defaultMarkers))
	copy(out, defaultMarkers)
	return out
}

// Filter is an immutable, compiled exclusion filter. The zero value
// excludes nothing.
type Filter struct {
	markers []string
	literal bool
	re      *regexp.Regexp
}

// New compiles markers into a Filter. With literal set, each marker is
// matched as a plain substring. An empty marker list yields a filter
// that excludes nothing.
func New(markers []string, literal bool) (*Filter, error) {
	f := &Filter{
		markers: make([]string, len(markers)),
		literal: literal,
	}
	copy(f.markers, markers)

	if len(markers) == 0 {
		return f, nil
	}

	parts := make([]string, 0, len(markers))
	for i, m := range markers {
		if m == "" {
			return nil, fmt.Errorf("marker %d: %w", i, ErrEmptyMarker)
		}
		if literal {
			m = regexp.QuoteMeta(m)
		}
		parts = append(parts, m)
	}

	re, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling exclusion markers: %w", err)
	}
	f.re = re
	return f, nil
}

// Default returns the filter built from DefaultMarkers in regex mode.
func Default() *Filter {
	f, err := New(defaultMarkers, false)
	if err != nil {
		// The built-in markers are constant and always compile.
		panic(err)
	}
	return f
}

// Markers returns a copy of the markers the filter was built from.
func (f *Filter) Markers() []string {
	out := make([]string, len(f.markers))
	copy(out, f.markers)
	return out
}

// Literal reports whether markers are matched as plain substrings.
func (f *Filter) Literal() bool { return f.literal }

// Pattern returns the compiled alternation, or "" when the filter
// excludes nothing.
func (f *Filter) Pattern() string {
	if f == nil || f.re == nil {
		return ""
	}
	return f.re.String()
}

// Excluded reports whether path matches any marker.
func (f *Filter) Excluded(path string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(path)
}

// Apply returns the paths that are not excluded, in their original
// order. The result is never nil.
func (f *Filter) Apply(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.Excluded(p) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
