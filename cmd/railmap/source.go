package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"railmap/internal/db"
	"railmap/internal/store"
)

var errNoSource = errors.New("no map source: set --database-url, --sqlite or --file")

type sourceOptions struct {
	DatabaseURL string
	SQLitePath  string
	MapFile     string
}

func addSourceFlags(cmd *cobra.Command, opts *sourceOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.DatabaseURL, "database-url", envOr("DATABASE_URL", ""), "Postgres connection string")
	f.StringVar(&opts.SQLitePath, "sqlite", envOr("SQLITE_PATH", ""), "SQLite database path")
	f.StringVar(&opts.MapFile, "file", envOr("MAP_FILE", ""), "map document (.yaml, .toml or .json)")
}

func (o sourceOptions) configured() bool {
	return o.DatabaseURL != "" || o.SQLitePath != "" || o.MapFile != ""
}

// openSource picks the first configured backend: Postgres, then SQLite,
// then a data file. The returned pool is nil unless Postgres was chosen.
func openSource(ctx context.Context, log zerolog.Logger, opts sourceOptions) (store.Source, *db.Pool, error) {
	switch {
	case opts.DatabaseURL != "":
		pool, err := db.Open(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Str("backend", "postgres").Msg("map source opened")
		return store.NewPostgres(pool.Queries()), pool, nil

	case opts.SQLitePath != "":
		s, err := store.OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("backend", "sqlite").Str("path", opts.SQLitePath).Msg("map source opened")
		return s, nil, nil

	case opts.MapFile != "":
		log.Info().Str("backend", "file").Str("path", opts.MapFile).Msg("map source opened")
		return store.NewFile(opts.MapFile), nil, nil
	}
	return nil, nil, errNoSource
}
