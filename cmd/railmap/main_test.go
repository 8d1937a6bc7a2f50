package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"railmap/internal/railmap"
	"railmap/internal/store"
)

func fp(v float64) *float64 { return &v }

const testDoc = `
stations:
  - {label: A, name: Alpha, x: 0, z: 0}
  - {label: B, name: Beta, x: 100, z: 0}
connections:
  - {from_label: A, to_label: B, group_id: 1, group_name: Red, color: "ff0000", line_id: 7}
routes:
  commute:
    - {current_station_label: A, next_station_label: B, current_line: 7}
`

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.yaml")
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func TestOpenSource_RequiresABackend(t *testing.T) {
	if _, _, err := openSource(context.Background(), zerolog.Nop(), sourceOptions{}); !errors.Is(err, errNoSource) {
		t.Fatalf("expected errNoSource, got %v", err)
	}
}

func TestOpenSource_File(t *testing.T) {
	src, pool, err := openSource(context.Background(), zerolog.Nop(), sourceOptions{MapFile: writeDoc(t)})
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}
	if pool != nil {
		t.Fatalf("expected no pool for a file source")
	}
	snap, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Stations) != 2 || len(snap.Connections) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRenderSnapshot(t *testing.T) {
	snap := store.Snapshot{
		Stations: []railmap.StationRecord{
			{Label: "A", Name: "Alpha", X: fp(0), Z: fp(0)},
			{Label: "B", Name: "Beta", X: fp(100), Z: fp(0)},
		},
		Connections: []railmap.ConnectionRecord{
			{FromLabel: "A", ToLabel: "B", GroupID: 1, GroupName: "Red", Color: "ff0000", LineID: 7},
		},
	}
	steps := []railmap.RouteStep{{Current: "A", Next: "B", Line: "9"}}

	res, err := renderSnapshot(snap, steps, railmap.DefaultConfig(), 400, 300, 1)
	if err != nil {
		t.Fatalf("renderSnapshot: %v", err)
	}
	if res.ingest.Stations != 2 || res.frame.Connections != 1 {
		t.Fatalf("unexpected stats %+v / %+v", res.ingest, res.frame)
	}
	if len(res.diagnostics) != 1 || res.diagnostics[0].Kind != railmap.DiagUnmatchedRoute {
		t.Fatalf("expected one unmatched route diagnostic, got %v", res.diagnostics)
	}
	if b := res.surface.Image().Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("expected 400x300, got %v", b)
	}

	if _, err := renderSnapshot(snap, nil, railmap.DefaultConfig(), 0, 10, 1); err == nil {
		t.Fatalf("expected an error for an empty image")
	}
}

func TestRenderSnapshot_Zoom(t *testing.T) {
	snap := store.Snapshot{Stations: []railmap.StationRecord{
		{Label: "A", X: fp(0), Z: fp(0)},
		{Label: "B", X: fp(1000), Z: fp(0)},
	}}
	res, err := renderSnapshot(snap, nil, railmap.DefaultConfig(), 400, 400, 0.1)
	if err != nil {
		t.Fatalf("renderSnapshot: %v", err)
	}
	// at scale 0.1, B sits 100px right of centre and is no longer culled
	if res.frame.Stations != 2 {
		t.Fatalf("expected both stations drawn, got %+v", res.frame)
	}
}

func TestRenderCommand_WritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.png")
	cmd := rootCmd()
	cmd.SetArgs([]string{"render", "--file", writeDoc(t), "--out", out, "--route", "commute", "--width", "200", "--height", "100"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}
	fi, err := os.Stat(out)
	if err != nil || fi.Size() == 0 {
		t.Fatalf("expected a PNG at %s, got %v", out, err)
	}
}

func TestConfigShow(t *testing.T) {
	var buf bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"config", "show", "--config", "", "--format", "yaml"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(buf.String(), "line_width: 8") {
		t.Fatalf("expected default line width in output, got:\n%s", buf.String())
	}
}

func TestImportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "railmap.db")
	cmd := rootCmd()
	cmd.SetArgs([]string{"import", writeDoc(t), "--sqlite", dbPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}

	s, err := store.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	routes, err := s.Routes(context.Background())
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	if len(routes) != 1 || routes[0].ID != "commute" || routes[0].Steps != 1 {
		t.Fatalf("unexpected routes %+v", routes)
	}
}
