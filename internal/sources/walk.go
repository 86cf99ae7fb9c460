package sources

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultWalkExtensions are the extensions Walk collects when none are
// configured.
var DefaultWalkExtensions = []string{".go", ".php"}

// Walk lists every file below Roots whose extension is in Extensions,
// in lexical order per root. Hidden directories are skipped.
type Walk struct {
	Roots      []string
	Extensions []string
}

// Files walks the roots. The walk stops with the context's error when
// ctx is done.
func (w *Walk) Files(ctx context.Context) ([]string, error) {
	roots := w.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	exts := w.Extensions
	if len(exts) == 0 {
		exts = DefaultWalkExtensions
	}

	var files []string
	for _, root := range roots {
		abs, err := absolute(root)
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if walkErr != nil {
				return walkErr
			}

			if d.IsDir() {
				base := d.Name()
				if path != abs && strings.HasPrefix(base, ".") {
					return filepath.SkipDir
				}
				return nil
			}

			if hasAnySuffix(d.Name(), exts) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	return Unique(files), nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
