package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const listStations = `-- name: ListStations :many
SELECT label,
       name,
       x,
       z
FROM stations
ORDER BY created_at ASC, label ASC
`

func (q *Queries) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := q.db.Query(ctx, listStations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Station
	for rows.Next() {
		var i Station
		if err := rows.Scan(&i.Label, &i.Name, &i.X, &i.Z); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listConnections = `-- name: ListConnections :many
SELECT c.from_label,
       c.to_label,
       c.group_id,
       g.name,
       g.color,
       c.line_id
FROM connections c
JOIN station_groups g ON g.id = c.group_id
ORDER BY c.id ASC
`

func (q *Queries) ListConnections(ctx context.Context) ([]Connection, error) {
	rows, err := q.db.Query(ctx, listConnections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Connection
	for rows.Next() {
		var i Connection
		if err := rows.Scan(&i.FromLabel, &i.ToLabel, &i.GroupID, &i.GroupName, &i.Color, &i.LineID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRouteSteps = `-- name: ListRouteSteps :many
SELECT route_id,
       seq,
       current_station_label,
       next_station_label,
       current_line
FROM route_steps
WHERE route_id = $1
ORDER BY seq ASC
`

func (q *Queries) ListRouteSteps(ctx context.Context, routeID string) ([]RouteStep, error) {
	rows, err := q.db.Query(ctx, listRouteSteps, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RouteStep
	for rows.Next() {
		var i RouteStep
		if err := rows.Scan(&i.RouteID, &i.Seq, &i.CurrentStationLabel, &i.NextStationLabel, &i.CurrentLine); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRoutes = `-- name: ListRoutes :many
SELECT route_id,
       COUNT(*) AS steps
FROM route_steps
GROUP BY route_id
ORDER BY route_id ASC
`

func (q *Queries) ListRoutes(ctx context.Context) ([]RouteSummary, error) {
	rows, err := q.db.Query(ctx, listRoutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RouteSummary
	for rows.Next() {
		var i RouteSummary
		if err := rows.Scan(&i.RouteID, &i.Steps); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDataVersion = `-- name: GetDataVersion :one
SELECT COALESCE(MAX(id), 0)::bigint
FROM map_revisions
`

func (q *Queries) GetDataVersion(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, getDataVersion)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const insertRevision = `-- name: InsertRevision :one
INSERT INTO map_revisions (note)
VALUES ($1)
RETURNING id
`

func (q *Queries) InsertRevision(ctx context.Context, note *string) (int64, error) {
	row := q.db.QueryRow(ctx, insertRevision, note)
	var id int64
	err := row.Scan(&id)
	return id, err
}
