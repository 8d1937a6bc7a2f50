package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"railmap/internal/railmap"
)

// SQLite is a self-contained map store in a single database file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		label TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		x REAL,
		z REAL
	);

	CREATE TABLE IF NOT EXISTS station_groups (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS connections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_label TEXT NOT NULL,
		to_label TEXT NOT NULL,
		group_id INTEGER NOT NULL,
		line_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS route_steps (
		route_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		current_station_label TEXT NOT NULL,
		next_station_label TEXT NOT NULL,
		current_line TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (route_id, seq)
	);

	CREATE TABLE IF NOT EXISTS map_revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_connections_group ON connections(group_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Version(ctx context.Context) (string, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM map_revisions`).Scan(&v); err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}

func (s *SQLite) Load(ctx context.Context) (Snapshot, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Version: version}

	rows, err := s.db.QueryContext(ctx, `SELECT label, name, x, z FROM stations ORDER BY rowid`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec  railmap.StationRecord
			x, z sql.NullFloat64
		)
		if err := rows.Scan(&rec.Label, &rec.Name, &x, &z); err != nil {
			return Snapshot{}, fmt.Errorf("scan station: %w", err)
		}
		rec.X = nullFloat(x)
		rec.Z = nullFloat(z)
		snap.Stations = append(snap.Stations, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("query stations: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT c.from_label, c.to_label, c.group_id, COALESCE(g.name, ''), COALESCE(g.color, ''), c.line_id
		FROM connections c
		LEFT JOIN station_groups g ON g.id = c.group_id
		ORDER BY c.id
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query connections: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c railmap.ConnectionRecord
		if err := crows.Scan(&c.FromLabel, &c.ToLabel, &c.GroupID, &c.GroupName, &c.Color, &c.LineID); err != nil {
			return Snapshot{}, fmt.Errorf("scan connection: %w", err)
		}
		snap.Connections = append(snap.Connections, c)
	}
	if err := crows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("query connections: %w", err)
	}
	return snap, nil
}

func (s *SQLite) Route(ctx context.Context, id string) ([]railmap.RouteStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT current_station_label, next_station_label, current_line
		FROM route_steps
		WHERE route_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query route: %w", err)
	}
	defer rows.Close()

	var steps []railmap.RouteStep
	for rows.Next() {
		var (
			st   railmap.RouteStep
			line string
		)
		if err := rows.Scan(&st.Current, &st.Next, &line); err != nil {
			return nil, fmt.Errorf("scan route step: %w", err)
		}
		st.Line = railmap.LineRef(line)
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query route: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, id)
	}
	return steps, nil
}

func (s *SQLite) Routes(ctx context.Context) ([]RouteSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT route_id, COUNT(*) FROM route_steps GROUP BY route_id ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	out := []RouteSummary{}
	for rows.Next() {
		var r RouteSummary
		if err := rows.Scan(&r.ID, &r.Steps); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Save replaces the stored map with snap plus the given named routes and
// records a new revision.
func (s *SQLite) Save(ctx context.Context, snap Snapshot, routes map[string][]railmap.RouteStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stations", "station_groups", "connections", "route_steps"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, st := range snap.Stations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stations (label, name, x, z) VALUES (?, ?, ?, ?) ON CONFLICT(label) DO NOTHING`,
			st.Label, st.Name, st.X, st.Z); err != nil {
			return fmt.Errorf("insert station %q: %w", st.Label, err)
		}
	}
	for _, c := range snap.Connections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO station_groups (id, name, color) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			c.GroupID, c.GroupName, c.Color); err != nil {
			return fmt.Errorf("insert group %d: %w", c.GroupID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connections (from_label, to_label, group_id, line_id) VALUES (?, ?, ?, ?)`,
			c.FromLabel, c.ToLabel, c.GroupID, c.LineID); err != nil {
			return fmt.Errorf("insert connection %s->%s: %w", c.FromLabel, c.ToLabel, err)
		}
	}
	for id, steps := range routes {
		for i, st := range steps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO route_steps (route_id, seq, current_station_label, next_station_label, current_line) VALUES (?, ?, ?, ?, ?)`,
				id, i, st.Current, st.Next, string(st.Line)); err != nil {
				return fmt.Errorf("insert route %q step %d: %w", id, i, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO map_revisions (note) VALUES (?)`, "save"); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return tx.Commit()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
