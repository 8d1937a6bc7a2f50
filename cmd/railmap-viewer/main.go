package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"railmap/internal/config"
	"railmap/internal/httpapi"
	"railmap/internal/store"
	"railmap/internal/syncworker"
	"railmap/internal/viewer"
)

func main() {
	if err := viewerCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "railmap-viewer: %v\n", err)
		os.Exit(1)
	}
}

type viewerOptions struct {
	logLevel   string
	configPath string
	sqlitePath string
	mapFile    string
	routeID    string
	width      int
	height     int
	poll       time.Duration
}

func viewerCmd() *cobra.Command {
	var opts viewerOptions
	cmd := &cobra.Command{
		Use:   "railmap-viewer",
		Short: "Open the transit map in a desktop window",
		Long: `Show a map from a SQLite database or a data file. The source is polled
and the window follows changes.

  railmap-viewer --file network.yaml --route commute`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level")
	f.StringVar(&opts.configPath, "config", envOr("CONFIG_PATH", ""), "renderer options file")
	f.StringVar(&opts.sqlitePath, "sqlite", envOr("SQLITE_PATH", ""), "SQLite database path")
	f.StringVar(&opts.mapFile, "file", envOr("MAP_FILE", ""), "map document (.yaml, .toml or .json)")
	f.StringVar(&opts.routeID, "route", "", "stored route to highlight")
	f.IntVar(&opts.width, "width", 1280, "window width")
	f.IntVar(&opts.height, "height", 800, "window height")
	f.DurationVar(&opts.poll, "poll", 2*time.Second, "source poll interval")
	return cmd
}

func run(opts viewerOptions) error {
	logger := httpapi.NewLogger(opts.logLevel)

	var src store.Source
	switch {
	case opts.sqlitePath != "":
		s, err := store.OpenSQLite(opts.sqlitePath)
		if err != nil {
			return err
		}
		src = s
	case opts.mapFile != "":
		src = store.NewFile(opts.mapFile)
	default:
		return fmt.Errorf("no map source: set --sqlite or --file")
	}
	defer src.Close()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Warn().Err(err).Msg("using default renderer options")
	}

	game, err := viewer.New(logger, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := syncworker.New(logger.With().Str("component", "sync").Logger(), src, game.Apply, syncworker.Options{PollInterval: opts.poll}, nil)
	go worker.Run(ctx)

	if opts.routeID != "" {
		steps, err := src.Route(ctx, opts.routeID)
		if err != nil {
			return err
		}
		if err := game.ShowRoute(ctx, steps); err != nil {
			return err
		}
	}

	return viewer.Run(game, "railmap", opts.width, opts.height)
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
