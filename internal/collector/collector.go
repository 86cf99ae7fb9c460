// Package collector bridges the toolbar's per-request collection hook
// to the metrics engine.
//
// On Collect, a Collector lists the source files loaded by the running
// program, drops every path matched by its exclusion filter, runs the
// engine over the rest, consolidates the per-file records into average
// and sum aggregates, and freezes everything into one Snapshot. Every
// accessor reads that snapshot; before a successful Collect they all
// return ErrNotCollected.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/metricsbar/internal/engine"
	"github.com/unbound-force/metricsbar/internal/filter"
	"github.com/unbound-force/metricsbar/internal/metric"
	"github.com/unbound-force/metricsbar/internal/sources"
	"github.com/unbound-force/metricsbar/internal/toolbar"
)

// Name identifies the code metrics panel in the toolbar registry.
const Name = "metricsbar.code_metrics"

// ErrNotCollected is returned by accessors called before a successful
// Collect.
var ErrNotCollected = errors.New("code metrics not collected")

// Analyzer runs an analysis pass and a violation pass.
// *engine.Engine satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, cfg *engine.Config) (*metric.Collection, error)
	ApplyViolations(cfg *engine.Config, coll *metric.Collection) error
}

// Snapshot is the frozen result of one collection.
type Snapshot struct {
	Files        []string             `json:"files"`
	Metrics      *metric.Collection   `json:"metrics"`
	Consolidated *metric.Consolidated `json:"consolidated"`
	Average      metric.Aggregate     `json:"average"`
	Sum          metric.Aggregate     `json:"sum"`
	CollectedAt  time.Time            `json:"collected_at"`
}

// Collector gathers code metrics for one request.
type Collector struct {
	lister     sources.Lister
	filter     *filter.Filter
	analyzer   Analyzer
	logger     *log.Logger
	thresholds engine.Thresholds
	extensions []string
	excludes   []string
	now        func() time.Time

	snap atomic.Pointer[Snapshot]
}

// Option configures a Collector.
type Option func(*Collector)

// WithLister sets the loaded-file source. The default reads the
// running executable's line table.
func WithLister(l sources.Lister) Option {
	return func(c *Collector) { c.lister = l }
}

// WithFilter sets the exclusion filter. The default is filter.Default.
func WithFilter(f *filter.Filter) Option {
	return func(c *Collector) { c.filter = f }
}

// WithAnalyzer sets the analysis engine. The default is engine.New.
func WithAnalyzer(a Analyzer) Option {
	return func(c *Collector) { c.analyzer = a }
}

// WithLogger sets the logger for collection progress.
func WithLogger(l *log.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithThresholds sets the violation thresholds handed to the engine.
func WithThresholds(t engine.Thresholds) Option {
	return func(c *Collector) { c.thresholds = t }
}

// WithExtensions sets the extensions the engine analyzes.
func WithExtensions(exts []string) Option {
	return func(c *Collector) { c.extensions = exts }
}

// WithExcludeDirs sets the directory names the engine skips when
// expanding directories.
func WithExcludeDirs(dirs []string) Option {
	return func(c *Collector) { c.excludes = dirs }
}

// New returns an uncollected collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		thresholds: engine.DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lister == nil {
		c.lister = &sources.Binary{}
	}
	if c.filter == nil {
		c.filter = filter.Default()
	}
	if c.analyzer == nil {
		c.analyzer = engine.New(engine.WithLogger(c.logger))
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Factory returns a toolbar factory creating a fresh collector per
// request.
func Factory(opts ...Option) toolbar.Factory {
	return func() toolbar.DataCollector { return New(opts...) }
}

// Name returns the panel identifier.
func (c *Collector) Name() string { return Name }

// Collect implements toolbar.DataCollector. The request's context is
// used without its cancellation, so the analysis completes even when
// the client has gone away. The response and handler error are not
// used.
func (c *Collector) Collect(r *http.Request, _ *toolbar.Response, _ error) error {
	ctx := context.Background()
	if r != nil {
		ctx = context.WithoutCancel(r.Context())
	}
	return c.CollectContext(ctx)
}

// CollectContext lists, filters and analyzes the loaded files and
// stores the result. On failure no snapshot is stored.
func (c *Collector) CollectContext(ctx context.Context) error {
	loaded, err := c.lister.Files(ctx)
	if err != nil {
		return fmt.Errorf("listing loaded files: %w", err)
	}

	files := c.filter.Apply(loaded)
	c.logger.Debug("filtered loaded files", "loaded", len(loaded), "kept", len(files))

	cfg := c.config(files)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid analysis config: %w", err)
	}

	coll, err := c.analyzer.Analyze(ctx, cfg)
	if err != nil {
		return fmt.Errorf("analyzing files: %w", err)
	}
	if err := c.analyzer.ApplyViolations(cfg, coll); err != nil {
		return fmt.Errorf("detecting violations: %w", err)
	}

	cons := metric.NewConsolidated(coll)
	c.snap.Store(&Snapshot{
		Files:        files,
		Metrics:      coll,
		Consolidated: cons,
		Average:      cons.Average(),
		Sum:          cons.Sum(),
		CollectedAt:  c.now(),
	})

	c.logger.Info("code metrics collected",
		"files", len(files),
		"records", coll.Len(),
		"violations", cons.Violations.Total())
	return nil
}

// config builds the engine configuration for files.
func (c *Collector) config(files []string) *engine.Config {
	cfg := engine.NewConfig()
	cfg.SetFiles(files)
	cfg.Quiet = true
	cfg.Thresholds = c.thresholds
	if c.extensions != nil {
		cfg.Extensions = append([]string(nil), c.extensions...)
	}
	if c.excludes != nil {
		cfg.ExcludeDirs = append([]string(nil), c.excludes...)
	}
	return cfg
}

// Snapshot returns the stored snapshot.
func (c *Collector) Snapshot() (*Snapshot, error) {
	s := c.snap.Load()
	if s == nil {
		return nil, ErrNotCollected
	}
	return s, nil
}

// Collected reports whether a snapshot is stored.
func (c *Collector) Collected() bool {
	return c.snap.Load() != nil
}
