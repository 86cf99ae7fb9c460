// Package sources discovers the source files a program was built from.
//
// Every Lister returns absolute, unique paths in discovery order. The
// default strategy, Binary, reads the running executable's line table
// and is the closest Go counterpart of asking the runtime which files
// it has loaded. Packages and Walk are explicit discovery strategies
// for processes whose binary carries no usable paths.
package sources

import (
	"context"
	"fmt"
	"path/filepath"
)

// Lister returns the source files loaded by the current program.
type Lister interface {
	Files(ctx context.Context) ([]string, error)
}

// Strategy names a Lister implementation.
type Strategy string

// Known strategies.
const (
	StrategyBinary   Strategy = "binary"
	StrategyPackages Strategy = "packages"
	StrategyWalk     Strategy = "walk"
)

// Options configures New.
type Options struct {
	// Patterns are package patterns for StrategyPackages.
	Patterns []string

	// Dir is the working directory for StrategyPackages.
	Dir string

	// Roots are the directories walked by StrategyWalk.
	Roots []string

	// Extensions restrict StrategyWalk to these file extensions.
	Extensions []string
}

// New returns the Lister for strategy.
func New(strategy Strategy, opts Options) (Lister, error) {
	switch strategy {
	case StrategyBinary, "":
		return &Binary{}, nil
	case StrategyPackages:
		return &Packages{Patterns: opts.Patterns, Dir: opts.Dir}, nil
	case StrategyWalk:
		return &Walk{Roots: opts.Roots, Extensions: opts.Extensions}, nil
	default:
		return nil, fmt.Errorf("unknown source strategy %q", strategy)
	}
}

// Static is a Lister over a fixed list of files.
type Static []string

// Files returns a copy of the list.
func (s Static) Files(_ context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// Unique removes duplicates from paths, keeping the first occurrence.
func Unique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// absolute converts p to a cleaned absolute path.
func absolute(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", p, err)
	}
	return abs, nil
}
