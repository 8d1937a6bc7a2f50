package store

import (
	"context"
	"fmt"
	"strconv"

	"railmap/internal/railmap"
	"railmap/internal/sqlcgen"
)

// Querier is the subset of sqlcgen.Queries the Postgres source needs.
type Querier interface {
	ListStations(ctx context.Context) ([]sqlcgen.Station, error)
	ListConnections(ctx context.Context) ([]sqlcgen.Connection, error)
	ListRouteSteps(ctx context.Context, routeID string) ([]sqlcgen.RouteStep, error)
	ListRoutes(ctx context.Context) ([]sqlcgen.RouteSummary, error)
	GetDataVersion(ctx context.Context) (int64, error)
}

type Postgres struct {
	q Querier
}

func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

func (p *Postgres) Version(ctx context.Context) (string, error) {
	v, err := p.q.GetDataVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}

func (p *Postgres) Load(ctx context.Context) (Snapshot, error) {
	version, err := p.Version(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	stations, err := p.q.ListStations(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list stations: %w", err)
	}
	conns, err := p.q.ListConnections(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list connections: %w", err)
	}

	snap := Snapshot{
		Version:     version,
		Stations:    make([]railmap.StationRecord, 0, len(stations)),
		Connections: make([]railmap.ConnectionRecord, 0, len(conns)),
	}
	for _, s := range stations {
		snap.Stations = append(snap.Stations, railmap.StationRecord{
			Label: s.Label,
			Name:  s.Name,
			X:     s.X,
			Z:     s.Z,
		})
	}
	for _, c := range conns {
		snap.Connections = append(snap.Connections, railmap.ConnectionRecord(c))
	}
	return snap, nil
}

func (p *Postgres) Route(ctx context.Context, id string) ([]railmap.RouteStep, error) {
	rows, err := p.q.ListRouteSteps(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list route steps: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, id)
	}
	steps := make([]railmap.RouteStep, 0, len(rows))
	for _, r := range rows {
		steps = append(steps, railmap.RouteStep{
			Current: r.CurrentStationLabel,
			Next:    r.NextStationLabel,
			Line:    railmap.LineRef(r.CurrentLine),
		})
	}
	return steps, nil
}

func (p *Postgres) Routes(ctx context.Context) ([]RouteSummary, error) {
	rows, err := p.q.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	out := make([]RouteSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, RouteSummary{ID: r.RouteID, Steps: int(r.Steps)})
	}
	return out, nil
}

// Close is a no-op; the pool belongs to the caller.
func (p *Postgres) Close() error { return nil }
