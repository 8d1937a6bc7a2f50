package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"railmap/internal/config"
	"railmap/internal/db"
	"railmap/internal/httpapi"
	"railmap/internal/metrics"
	"railmap/internal/syncworker"
)

type serveOptions struct {
	addr       string
	logLevel   string
	configPath string
	width      int
	height     int
	poll       time.Duration
	source     sourceOptions
}

func serveCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a shared map session over HTTP",
		Long: `Run the HTTP API around a single map session. Map data is polled from
the first configured source; without one the map starts empty and is fed
through POST /api/v1/map/data.

  railmap serve --file network.yaml
  railmap serve --database-url postgres://localhost/railmap
  railmap serve --sqlite railmap.db --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", envOr("HTTP_ADDR", ":8081"), "listen address")
	f.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level")
	f.StringVar(&opts.configPath, "config", envOr("CONFIG_PATH", ""), "renderer options file")
	f.IntVar(&opts.width, "width", 1024, "frame width in pixels")
	f.IntVar(&opts.height, "height", 768, "frame height in pixels")
	f.DurationVar(&opts.poll, "poll", 2*time.Second, "source poll interval")
	addSourceFlags(cmd, &opts.source)
	return cmd
}

func runServe(opts serveOptions) error {
	logger := httpapi.NewLogger(opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Warn().Err(err).Msg("using default renderer options")
	}

	m := metrics.New()
	session, err := httpapi.NewSession(logger, cfg, opts.width, opts.height, m)
	if err != nil {
		return err
	}

	deps := httpapi.Deps{Session: session, Metrics: m}
	var pool *db.Pool
	if opts.source.configured() {
		src, p, err := openSource(ctx, logger, opts.source)
		if err != nil {
			return err
		}
		defer src.Close()
		pool = p
		if pool != nil {
			defer pool.Close()
		}

		worker := syncworker.New(logger.With().Str("component", "sync").Logger(), src, session.Apply, syncworker.Options{PollInterval: opts.poll}, m)
		if _, err := worker.SyncNow(ctx); err != nil {
			logger.Warn().Err(err).Msg("initial map load failed; will retry")
		}
		go worker.Run(ctx)

		deps.Pool = pool
		deps.Source = src
		deps.Syncer = worker
	}

	h := httpapi.NewHandler(logger, deps)
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", opts.addr).Msg("railmap listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
	return nil
}
