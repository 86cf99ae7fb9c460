// Package config loads .metricsbar.yaml configuration files.
//
// A file only needs to name the settings it changes: Load decodes it
// over DefaultConfig, so absent keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/metricsbar/internal/engine"
	"github.com/unbound-force/metricsbar/internal/filter"
	"github.com/unbound-force/metricsbar/internal/sources"
	"github.com/unbound-force/metricsbar/internal/toolbar"
)

// FileName is the configuration file looked up in the working
// directory when no path is given.
const FileName = ".metricsbar.yaml"

// Storage backends for profiles.
const (
	StorageMemory = "memory"
	StorageBadger = "badger"
)

// Config is the full metricsbar configuration.
type Config struct {
	Exclude  ExcludeConfig  `yaml:"exclude"`
	Sources  SourcesConfig  `yaml:"sources"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

// ExcludeConfig configures the exclusion filter.
type ExcludeConfig struct {
	// Markers are joined into one regular expression. A path matching
	// it is not analyzed.
	Markers []string `yaml:"markers"`

	// Literal matches markers as plain substrings.
	Literal bool `yaml:"literal"`
}

// SourcesConfig selects how loaded files are discovered.
type SourcesConfig struct {
	Strategy   string   `yaml:"strategy"`
	Patterns   []string `yaml:"patterns"`
	Dir        string   `yaml:"dir"`
	Roots      []string `yaml:"roots"`
	Extensions []string `yaml:"extensions"`
}

// AnalysisConfig configures the engine.
type AnalysisConfig struct {
	Extensions  []string          `yaml:"extensions"`
	ExcludeDirs []string          `yaml:"exclude_dirs"`
	Thresholds  engine.Thresholds `yaml:"thresholds"`
}

// ProfilerConfig configures the demo server and profile storage.
type ProfilerConfig struct {
	Listen   string        `yaml:"listen"`
	Prefix   string        `yaml:"prefix"`
	Storage  string        `yaml:"storage"`
	Path     string        `yaml:"path"`
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Exclude: ExcludeConfig{
			Markers: filter.DefaultMarkers(),
		},
		Sources: SourcesConfig{
			Strategy: string(sources.StrategyBinary),
		},
		Analysis: AnalysisConfig{
			Extensions:  append([]string(nil), engine.DefaultExtensions...),
			ExcludeDirs: append([]string(nil), engine.DefaultExcludeDirs...),
			Thresholds:  engine.DefaultThresholds(),
		},
		Profiler: ProfilerConfig{
			Listen:   "localhost:8080",
			Prefix:   toolbar.DefaultPrefix,
			Storage:  StorageMemory,
			TTL:      24 * time.Hour,
			Capacity: toolbar.DefaultCapacity,
		},
	}
}

// Load reads the configuration at path over the defaults. An empty
// path looks for FileName in the working directory and falls back to
// the defaults when it does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	for i, m := range c.Exclude.Markers {
		if m == "" {
			return fmt.Errorf("exclude.markers[%d]: %w", i, filter.ErrEmptyMarker)
		}
	}

	switch sources.Strategy(c.Sources.Strategy) {
	case sources.StrategyBinary, sources.StrategyPackages, sources.StrategyWalk, "":
	default:
		return fmt.Errorf("invalid sources.strategy %q (want binary, packages or walk)", c.Sources.Strategy)
	}

	t := c.Analysis.Thresholds
	if t.MaxComplexity < 0 || t.MaxFunctionComplexity < 0 || t.MaxBugs < 0 ||
		t.MaxLogicalLines < 0 || t.MinMaintainability < 0 {
		return errors.New("invalid analysis.thresholds: values must not be negative")
	}
	for _, ext := range c.Analysis.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid analysis.extensions entry %q: must start with a dot", ext)
		}
	}

	switch c.Profiler.Storage {
	case StorageMemory, StorageBadger:
	default:
		return fmt.Errorf("invalid profiler.storage %q (want memory or badger)", c.Profiler.Storage)
	}
	if strings.Trim(c.Profiler.Prefix, "/") == "" {
		return fmt.Errorf("invalid profiler.prefix %q: must name a path", c.Profiler.Prefix)
	}
	if c.Profiler.TTL < 0 {
		return errors.New("invalid profiler.ttl: must not be negative")
	}
	if c.Profiler.Capacity < 0 {
		return errors.New("invalid profiler.capacity: must not be negative")
	}
	return nil
}

// Filter builds the exclusion filter.
func (c *Config) Filter() (*filter.Filter, error) {
	return filter.New(c.Exclude.Markers, c.Exclude.Literal)
}

// Lister builds the loaded-file source.
func (c *Config) Lister() (sources.Lister, error) {
	return sources.New(sources.Strategy(c.Sources.Strategy), sources.Options{
		Patterns:   c.Sources.Patterns,
		Dir:        c.Sources.Dir,
		Roots:      c.Sources.Roots,
		Extensions: c.Sources.Extensions,
	})
}

// Storage opens the configured profile storage. The returned close
// function releases it.
func (c *Config) Storage() (toolbar.Storage, func() error, error) {
	switch c.Profiler.Storage {
	case StorageBadger:
		s, err := toolbar.OpenBadger(c.Profiler.Path, c.Profiler.TTL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return toolbar.NewMemoryStorage(c.Profiler.Capacity), func() error { return nil }, nil
	}
}
