// Package store loads map records from the backends railmap can read:
// Postgres, SQLite and plain data files.
package store

import (
	"context"
	"errors"

	"railmap/internal/railmap"
)

var ErrRouteNotFound = errors.New("route not found")

// Snapshot is one complete, consistent set of records.
type Snapshot struct {
	Version     string                     `json:"version"`
	Stations    []railmap.StationRecord    `json:"stations"`
	Connections []railmap.ConnectionRecord `json:"connections"`
}

type RouteSummary struct {
	ID    string `json:"id"`
	Steps int    `json:"steps"`
}

// Source is a readable map backend. Version must be cheap; callers poll it
// and only Load when it changes.
type Source interface {
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) (Snapshot, error)
	Route(ctx context.Context, id string) ([]railmap.RouteStep, error)
	Routes(ctx context.Context) ([]RouteSummary, error)
	Close() error
}

var (
	_ Source = (*Postgres)(nil)
	_ Source = (*SQLite)(nil)
	_ Source = (*File)(nil)
)
