package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/metricsbar/internal/collector"
	"github.com/unbound-force/metricsbar/internal/config"
	"github.com/unbound-force/metricsbar/internal/toolbar"
)

// shutdownTimeout bounds graceful shutdown of the demo server.
const shutdownTimeout = 10 * time.Second

// serveParams holds the parsed flags for the serve command.
type serveParams struct {
	cfgPath  string
	listen   string
	roots    []string
	strategy string
	literal  bool
	stdout   io.Writer
	stderr   io.Writer
}

// newServeHandler wires the demo application behind the profiler. The
// profiler routes are served next to the profiled application.
func newServeHandler(cfg *config.Config, storage toolbar.Storage, log *charmlog.Logger) (*toolbar.Profiler, http.Handler, error) {
	opts, err := collectorOptions(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	profiler := toolbar.New(
		toolbar.WithPrefix(cfg.Profiler.Prefix),
		toolbar.WithStorage(storage),
		toolbar.WithLogger(log),
		toolbar.WithCollector(collector.Factory(opts...), collector.Decode),
	)

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "metricsbar demo\n\nEvery response carries an %s header.\n"+
			"Inspect it at %s/{token} and %s/{token}/%s\n",
			toolbar.TokenHeader, profiler.Prefix(), profiler.Prefix(), collector.Name)
	})
	app.HandleFunc("GET /hello/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hello, %s\n", r.PathValue("name"))
	})
	app.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) {
		panic("demo panic")
	})

	panels := profiler.Handler()
	mux := http.NewServeMux()
	mux.Handle(profiler.Prefix(), panels)
	mux.Handle(profiler.Prefix()+"/", panels)
	mux.Handle("/", profiler.Middleware(app))
	return profiler, mux, nil
}

// runServe runs the demo server until ctx is done.
func runServe(ctx context.Context, p serveParams) error {
	cfg, err := loadConfig(p.cfgPath, overrides{
		literal:  p.literal,
		strategy: p.strategy,
		roots:    p.roots,
	})
	if err != nil {
		return err
	}
	if p.listen != "" {
		cfg.Profiler.Listen = p.listen
	}

	storage, closeStorage, err := cfg.Storage()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error("closing profile storage", "err", err)
		}
	}()

	profiler, handler, err := newServeHandler(cfg, storage, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Profiler.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving",
		"addr", cfg.Profiler.Listen,
		"profiler", profiler.Prefix(),
		"storage", cfg.Profiler.Storage)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var (
		listen   string
		strategy string
		literal  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Run a demo application behind the profiler",
		Long: `Run a small HTTP application wrapped by the profiler. Every
response is profiled with the code metrics panel; stored profiles are
served under the configured prefix. With paths, the given directories
are walked instead of using the configured source strategy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveParams{
				cfgPath:  *cfgPath,
				listen:   listen,
				roots:    args,
				strategy: strategy,
				literal:  literal,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "",
		"address to listen on (default from config)")
	cmd.Flags().StringVar(&strategy, "strategy", "",
		"source strategy: binary, packages or walk (default from config)")
	cmd.Flags().BoolVar(&literal, "literal", false,
		"match exclusion markers as plain substrings")

	return cmd
}
