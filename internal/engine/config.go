package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingFiles is returned by Validate when the files option was
// never set. An empty, non-nil file list is valid.
var ErrMissingFiles = errors.New("missing option: files")

// Thresholds configures the violation rules.
type Thresholds struct {
	// MaxComplexity flags files whose cyclomatic complexity exceeds it.
	MaxComplexity int `yaml:"max_complexity" json:"max_complexity"`

	// MaxFunctionComplexity flags files containing a function whose
	// complexity exceeds it.
	MaxFunctionComplexity int `yaml:"max_function_complexity" json:"max_function_complexity"`

	// MaxBugs flags files whose estimated bug count reaches it.
	MaxBugs float64 `yaml:"max_bugs" json:"max_bugs"`

	// MaxLogicalLines flags files with more logical lines.
	MaxLogicalLines int `yaml:"max_logical_lines" json:"max_logical_lines"`

	// MinMaintainability flags files whose maintainability index is
	// below it.
	MinMaintainability float64 `yaml:"min_maintainability" json:"min_maintainability"`
}

// DefaultThresholds returns the built-in violation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxComplexity:         50,
		MaxFunctionComplexity: 10,
		MaxBugs:               0.35,
		MaxLogicalLines:       1000,
		MinMaintainability:    65,
	}
}

// DefaultExtensions lists the file extensions analyzed by default.
var DefaultExtensions = []string{".go", ".php", ".inc"}

// DefaultExcludeDirs lists directory names skipped when a configured
// path is a directory.
var DefaultExcludeDirs = []string{
	"vendor", "test", "Test", "tests", "Tests", "testing", "Testing",
	"testdata", "bower_components", "node_modules", "cache", "spec",
}

// Config is the option set of one analysis run.
type Config struct {
	// Files lists the files and directories to analyze. Nil means the
	// option is missing.
	Files []string

	// Extensions restricts directory expansion to these extensions
	// (with leading dot).
	Extensions []string

	// ExcludeDirs names directories skipped during expansion.
	ExcludeDirs []string

	Thresholds Thresholds

	// Quiet silences all engine output.
	Quiet bool
}

// NewConfig returns a config with default extensions, excluded
// directories and thresholds, and no files set.
func NewConfig() *Config {
	return &Config{
		Extensions:  append([]string(nil), DefaultExtensions...),
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
		Thresholds:  DefaultThresholds(),
	}
}

// SetFiles sets the files option. A nil list is stored as an empty one
// so that the option counts as set.
func (c *Config) SetFiles(files []string) {
	if files == nil {
		files = []string{}
	}
	c.Files = append([]string{}, files...)
}

// Validate checks that the files option is set and that every listed
// path exists. Missing extensions fall back to the defaults.
func (c *Config) Validate() error {
	if c.Files == nil {
		return ErrMissingFiles
	}

	for _, f := range c.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("invalid files option: empty path")
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("file or directory %q does not exist: %w", f, err)
		}
	}

	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.Extensions {
		if ext == "" {
			return fmt.Errorf("invalid extensions option: empty extension")
		}
		if !strings.HasPrefix(ext, ".") {
			c.Extensions[i] = "." + ext
		}
	}

	t := c.Thresholds
	if t.MaxComplexity < 0 || t.MaxFunctionComplexity < 0 || t.MaxBugs < 0 ||
		t.MaxLogicalLines < 0 || t.MinMaintainability < 0 {
		return fmt.Errorf("invalid thresholds: values must not be negative")
	}

	return nil
}

// hasExtension reports whether path ends with one of the configured
// extensions.
func (c *Config) hasExtension(path string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// excludedDir reports whether a directory with the given base name is
// skipped during expansion.
func (c *Config) excludedDir(name string) bool {
	for _, d := range c.ExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}
