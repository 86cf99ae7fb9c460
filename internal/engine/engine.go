// Package engine runs static metrics analysis over source files.
//
// An analysis run is configured with a Config whose files option lists
// files and directories. Directories are expanded by extension, each
// file is dispatched to the FileAnalyzer registered for its extension,
// and the resulting records are gathered into a metric.Collection. A
// separate violation pass then checks every record against the
// configured thresholds.
package engine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/metricsbar/internal/metric"
)

// FileAnalyzer computes the metrics record of one source file.
type FileAnalyzer interface {
	Language() metric.Language
	Extensions() []string
	AnalyzeFile(ctx context.Context, path string, src []byte) (*metric.Record, error)
}

// Engine dispatches files to language analyzers.
type Engine struct {
	logger    *log.Logger
	analyzers map[string]FileAnalyzer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used when a run is not quiet.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithAnalyzer registers a for each of its extensions, replacing any
// analyzer already registered for them.
func WithAnalyzer(a FileAnalyzer) Option {
	return func(e *Engine) { e.register(a) }
}

// New returns an engine with the Go and PHP analyzers registered.
func New(opts ...Option) *Engine {
	e := &Engine{analyzers: make(map[string]FileAnalyzer)}
	e.register(NewGoAnalyzer())
	e.register(NewPHPAnalyzer())
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

func (e *Engine) register(a FileAnalyzer) {
	for _, ext := range a.Extensions() {
		e.analyzers[ext] = a
	}
}

// output returns the logger for a run; quiet runs write nowhere.
func (e *Engine) output(cfg *Config) *log.Logger {
	if cfg.Quiet {
		return log.New(io.Discard)
	}
	return e.logger
}

// Analyze computes the metrics of every file selected by cfg. Any read
// or parse failure aborts the run.
func (e *Engine) Analyze(ctx context.Context, cfg *Config) (*metric.Collection, error) {
	if cfg == nil || cfg.Files == nil {
		return nil, ErrMissingFiles
	}
	out := e.output(cfg)

	files, err := e.expand(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out.Info("analyzing files", "files", len(files))

	coll := metric.NewCollection()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis interrupted: %w", err)
		}

		a, ok := e.analyzers[filepath.Ext(path)]
		if !ok {
			out.Debug("no analyzer for file", "file", path)
			continue
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		rec, err := a.AnalyzeFile(ctx, path, src)
		if err != nil {
			return nil, err
		}
		rec.Name = path
		rec.Finish()
		coll.Add(rec)
		out.Debug("analyzed file", "file", path, "ccn", rec.CCN, "loc", rec.LOC)
	}

	out.Info("analysis complete", "records", coll.Len())
	return coll, nil
}

// expand resolves directories in cfg.Files into source files. Explicit
// files are kept as given; duplicates are dropped.
func (e *Engine) expand(ctx context.Context, cfg *Config) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range cfg.Files {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("file or directory %q does not exist: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path == root {
					return nil
				}
				name := d.Name()
				if strings.HasPrefix(name, ".") || cfg.excludedDir(name) {
					return filepath.SkipDir
				}
				return nil
			}
			if cfg.hasExtension(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	return files, nil
}

// countLines returns the number of lines in src and how many of them
// are blank.
func countLines(src []byte) (loc, blank int) {
	if len(src) == 0 {
		return 0, 0
	}
	lines := strings.Split(string(src), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
		}
	}
	return len(lines), blank
}
