package sources

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode is the minimum set of flags needed to list the files of a
// package graph.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedModule

// Packages lists the Go files of the packages matched by Patterns and
// of all their non-standard dependencies. Dependencies come before the
// packages importing them, mirroring initialization order.
type Packages struct {
	Patterns []string

	// Dir is the directory the patterns are resolved in. Empty means
	// the current directory.
	Dir string
}

// Files loads the package graph.
func (p *Packages) Files(ctx context.Context) ([]string, error) {
	patterns := p.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     p.Dir,
		Tests:   false,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for patterns %v", patterns)
	}

	var (
		errs  []string
		files []string
	)
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs = append(errs, e.Error())
		}
		// Standard library packages have no module.
		if pkg.Module == nil {
			return
		}
		files = append(files, pkg.GoFiles...)
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("packages %v have errors:\n  %s",
			patterns, strings.Join(errs, "\n  "))
	}

	return Unique(files), nil
}
