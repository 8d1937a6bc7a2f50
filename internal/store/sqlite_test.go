package store

import (
	"context"
	"errors"
	"testing"

	"railmap/internal/railmap"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	v0, err := s.Version(ctx)
	if err != nil || v0 != "0" {
		t.Fatalf("expected version 0, got %q (%v)", v0, err)
	}

	snap := Snapshot{
		Stations: []railmap.StationRecord{
			{Label: "A", Name: "Alpha", X: ptr(0), Z: ptr(0)},
			{Label: "B", Name: "Beta", X: ptr(10), Z: ptr(0)},
			{Label: "C", Name: "Gamma", X: ptr(5), Z: nil},
		},
		Connections: []railmap.ConnectionRecord{
			{FromLabel: "A", ToLabel: "B", GroupID: 1, GroupName: "Red", Color: "ff0000", LineID: 1},
			{FromLabel: "B", ToLabel: "A", GroupID: 1, GroupName: "Red", Color: "ff0000", LineID: 1},
		},
	}
	routes := map[string][]railmap.RouteStep{
		"commute": {{Current: "A", Next: "B", Line: "1"}},
	}
	if err := s.Save(ctx, snap, routes); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version == v0 {
		t.Fatalf("expected the version to change after Save")
	}
	if len(got.Stations) != 3 || got.Stations[0].Label != "A" || got.Stations[2].Z != nil {
		t.Fatalf("unexpected stations %+v", got.Stations)
	}
	if len(got.Connections) != 2 || got.Connections[1].FromLabel != "B" || got.Connections[1].GroupName != "Red" {
		t.Fatalf("unexpected connections %+v", got.Connections)
	}

	steps, err := s.Route(ctx, "commute")
	if err != nil || len(steps) != 1 || steps[0].Line != "1" {
		t.Fatalf("unexpected route %+v (%v)", steps, err)
	}
	if _, err := s.Route(ctx, "missing"); !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
	list, err := s.Routes(ctx)
	if err != nil || len(list) != 1 || list[0].Steps != 1 {
		t.Fatalf("unexpected routes %+v (%v)", list, err)
	}

	g := railmap.NewGraph()
	stats := g.Ingest(got.Stations, got.Connections, nil)
	if stats.Stations != 2 || stats.Connections != 1 || !g.Connections()[0].TwoWay {
		t.Fatalf("expected the stored data to ingest into one two-way connection, got %+v", stats)
	}
}

func TestSQLite_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	first := Snapshot{Stations: []railmap.StationRecord{{Label: "A", X: ptr(0), Z: ptr(0)}}}
	second := Snapshot{Stations: []railmap.StationRecord{{Label: "B", X: ptr(1), Z: ptr(1)}}}

	if err := s.Save(ctx, first, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, second, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Stations) != 1 || got.Stations[0].Label != "B" {
		t.Fatalf("expected only B, got %+v", got.Stations)
	}
	if got.Version != "2" {
		t.Fatalf("expected version 2, got %q", got.Version)
	}
}
