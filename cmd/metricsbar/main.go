package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/config"
	"github.com/unbound-force/metricsbar/internal/engine"
	"github.com/unbound-force/metricsbar/internal/report"
	"github.com/unbound-force/metricsbar/internal/scaffold"
	"github.com/unbound-force/metricsbar/internal/sources"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "metricsbar",
		Short: "metricsbar - code metrics panel for a debug profiler",
		Long: `metricsbar measures the source files a Go program was built from
(complexity, Halstead measures, maintainability index) and serves the
result as a panel of a request profiler.`,
		Version: version,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to the configuration file (default: ./"+config.FileName+" when present)")

	root.AddCommand(newAnalyzeCmd(&cfgPath))
	root.AddCommand(newFilesCmd(&cfgPath))
	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// overrides holds CLI flags that take precedence over the config file.
type overrides struct {
	literal  bool
	strategy string
	roots    []string
}

// loadConfig loads the configuration file and applies CLI overrides.
func loadConfig(path string, o overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.literal {
		cfg.Exclude.Literal = true
	}
	if o.strategy != "" {
		cfg.Sources.Strategy = o.strategy
	}
	if len(o.roots) > 0 {
		cfg.Sources.Strategy = string(sources.StrategyWalk)
		cfg.Sources.Roots = o.roots
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// collectorOptions builds the collector options for cfg.
func collectorOptions(cfg *config.Config, log *charmlog.Logger) ([]collector.Option, error) {
	f, err := cfg.Filter()
	if err != nil {
		return nil, err
	}
	lister, err := cfg.Lister()
	if err != nil {
		return nil, err
	}
	return []collector.Option{
		collector.WithLister(lister),
		collector.WithFilter(f),
		collector.WithAnalyzer(engine.New(engine.WithLogger(log))),
		collector.WithLogger(log),
		collector.WithThresholds(cfg.Analysis.Thresholds),
		collector.WithExtensions(cfg.Analysis.Extensions),
		collector.WithExcludeDirs(cfg.Analysis.ExcludeDirs),
	}, nil
}

// analyzeParams holds the parsed flags for the analyze command.
type analyzeParams struct {
	cfgPath     string
	roots       []string
	strategy    string
	format      string
	literal     bool
	verbose     bool
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

// runAnalyze is the extracted, testable body of the analyze command.
func runAnalyze(ctx context.Context, p analyzeParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	cfg, err := loadConfig(p.cfgPath, overrides{
		literal:  p.literal,
		strategy: p.strategy,
		roots:    p.roots,
	})
	if err != nil {
		return err
	}
	opts, err := collectorOptions(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("collecting code metrics", "strategy", cfg.Sources.Strategy)
	c := collector.New(opts...)
	if err := c.CollectContext(ctx); err != nil {
		return err
	}
	view, err := c.View()
	if err != nil {
		return err
	}
	if view.FileCount == 0 {
		logger.Warn("no files left after exclusion")
	}

	if p.interactive {
		return runInteractiveAnalyze(view)
	}

	switch p.format {
	case "json":
		return report.WriteJSON(p.stdout, view, version)
	default:
		return report.WriteTextOptions(p.stdout, view, report.TextOptions{
			MinMaintainability: cfg.Analysis.Thresholds.MinMaintainability,
			Verbose:            p.verbose,
		})
	}
}

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	var (
		format      string
		strategy    string
		literal     bool
		verbose     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Collect code metrics once and print the panel",
		Long: `Collect code metrics the way the profiler panel does and print
the result. With paths, the given directories are walked instead of
using the configured source strategy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), analyzeParams{
				cfgPath:     *cfgPath,
				roots:       args,
				strategy:    strategy,
				format:      format,
				literal:     literal,
				verbose:     verbose,
				interactive: interactive,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&strategy, "strategy", "",
		"source strategy: binary, packages or walk (default from config)")
	cmd.Flags().BoolVar(&literal, "literal", false,
		"match exclusion markers as plain substrings")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"list every violation")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")

	return cmd
}

// filesParams holds the parsed flags for the files command.
type filesParams struct {
	cfgPath  string
	roots    []string
	strategy string
	literal  bool
	excluded bool
	stdout   io.Writer
}

// runFiles prints the loaded files kept by the exclusion filter, or
// the ones it drops.
func runFiles(ctx context.Context, p filesParams) error {
	cfg, err := loadConfig(p.cfgPath, overrides{
		literal:  p.literal,
		strategy: p.strategy,
		roots:    p.roots,
	})
	if err != nil {
		return err
	}
	f, err := cfg.Filter()
	if err != nil {
		return err
	}
	lister, err := cfg.Lister()
	if err != nil {
		return err
	}

	loaded, err := lister.Files(ctx)
	if err != nil {
		return err
	}
	for _, path := range loaded {
		if f.Excluded(path) == p.excluded {
			fmt.Fprintln(p.stdout, path)
		}
	}
	return nil
}

func newFilesCmd(cfgPath *string) *cobra.Command {
	var (
		strategy string
		literal  bool
		excluded bool
	)

	cmd := &cobra.Command{
		Use:   "files [paths...]",
		Short: "List the loaded files that would be analyzed",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd.Context(), filesParams{
				cfgPath:  *cfgPath,
				roots:    args,
				strategy: strategy,
				literal:  literal,
				excluded: excluded,
				stdout:   cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "",
		"source strategy: binary, packages or walk (default from config)")
	cmd.Flags().BoolVar(&literal, "literal", false,
		"match exclusion markers as plain substrings")
	cmd.Flags().BoolVar(&excluded, "excluded", false,
		"list the files dropped by the exclusion filter instead")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for metricsbar analysis output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of metricsbar analyze --format=json output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated " + config.FileName + " to the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing configuration file")

	return cmd
}
