// Package scaffold embeds the annotated default configuration and
// writes it to a target project directory.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//go:embed assets/metricsbar.yaml
var assets embed.FS

// assetPath is the embedded configuration template.
const assetPath = "assets/metricsbar.yaml"

// FileName is the name of the written configuration file.
const FileName = ".metricsbar.yaml"

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing file when true.
	Force bool

	// Version is the metricsbar version recorded in the file header.
	// Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Path is the configuration file path.
	Path string

	// Created is true when the file did not exist before.
	Created bool

	// Skipped is true when an existing file was left untouched.
	Skipped bool

	// Overwritten is true when an existing file was replaced.
	Overwritten bool
}

// versionMarker returns the header comment prepended to the file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by metricsbar %s\n", version)
}

// Run writes the default configuration to TargetDir/.metricsbar.yaml.
// An existing file is skipped unless opts.Force is set.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	// Check for go.mod and warn if absent.
	if _, err := os.Stat(filepath.Join(opts.TargetDir, "go.mod")); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no go.mod found in target directory.")
		fmt.Fprintln(opts.Stdout, "The packages strategy resolves patterns from a module root.")
		fmt.Fprintln(opts.Stdout)
	}

	outPath := filepath.Join(opts.TargetDir, FileName)
	result := &Result{Path: outPath}

	_, statErr := os.Stat(outPath)
	exists := statErr == nil
	if exists && !opts.Force {
		result.Skipped = true
		printSummary(opts.Stdout, result)
		return result, nil
	}

	content, err := Template()
	if err != nil {
		return nil, err
	}
	out := append([]byte(versionMarker(opts.Version)), content...)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", FileName, err)
	}

	result.Created = !exists
	result.Overwritten = exists
	printSummary(opts.Stdout, result)
	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	switch {
	case r.Created:
		fmt.Fprintf(w, "created: %s\n", r.Path)
	case r.Overwritten:
		fmt.Fprintf(w, "overwritten: %s\n", r.Path)
	case r.Skipped:
		fmt.Fprintf(w, "skipped: %s (already exists, use --force to overwrite)\n", r.Path)
	}
}

// Template returns the embedded configuration without version header.
func Template() ([]byte, error) {
	content, err := assets.ReadFile(assetPath)
	if err != nil {
		return nil, fmt.Errorf("reading embedded asset %s: %w", assetPath, err)
	}
	return content, nil
}
