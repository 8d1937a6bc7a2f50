package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const yamlDoc = `
stations:
  - {label: A, name: Alpha, x: 0, z: 0}
  - {label: B, name: Beta, x: 10, z: 0}
  - {label: C, name: Gamma, x: 5}
connections:
  - {from_label: A, to_label: B, group_id: 1, group_name: Red, color: ff0000, line_id: 1}
routes:
  commute:
    - {current_station_label: A, next_station_label: B, current_line: 1}
`

const tomlDoc = `
[[stations]]
label = "A"
name = "Alpha"
x = 0.0
z = 0.0

[[stations]]
label = "B"
name = "Beta"
x = 10.0
z = 0.0

[[connections]]
from_label = "A"
to_label = "B"
group_id = 1
group_name = "Red"
color = "ff0000"
line_id = 1

[[routes.commute]]
current_station_label = "A"
next_station_label = "B"
current_line = 1
`

const jsonDoc = `{
  "stations": [{"label":"A","name":"Alpha","x":0,"z":0},{"label":"B","name":"Beta","x":10,"z":0}],
  "connections": [{"from_label":"A","to_label":"B","group_id":1,"group_name":"Red","color":"ff0000","line_id":1}],
  "routes": {"commute": [{"current_station_label":"A","next_station_label":"B","current_line":1}]}
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFile_DecodesEveryFormat(t *testing.T) {
	for _, tc := range []struct {
		name, body string
	}{
		{"map.yaml", yamlDoc},
		{"map.toml", tomlDoc},
		{"map.json", jsonDoc},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFile(writeFile(t, tc.name, tc.body))
			snap, err := f.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if snap.Version == "" {
				t.Fatalf("expected a version")
			}
			if snap.Stations[0].Label != "A" || snap.Stations[1].X == nil || *snap.Stations[1].X != 10 {
				t.Fatalf("unexpected stations %+v", snap.Stations)
			}
			if len(snap.Connections) != 1 || snap.Connections[0].GroupName != "Red" {
				t.Fatalf("unexpected connections %+v", snap.Connections)
			}
			steps, err := f.Route(context.Background(), "commute")
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if steps[0].Line != "1" {
				t.Fatalf("expected line 1, got %q", steps[0].Line)
			}
		})
	}
}

func TestFile_MissingCoordinateStaysNil(t *testing.T) {
	f := NewFile(writeFile(t, "map.yml", yamlDoc))
	snap, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Stations[2].Z != nil {
		t.Fatalf("expected C to have no z")
	}
}

func TestFile_Errors(t *testing.T) {
	if _, err := NewFile(filepath.Join(t.TempDir(), "none.yaml")).Load(context.Background()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if _, err := DecodeDocument(".xml", nil); err == nil {
		t.Fatalf("expected an error for an unknown extension")
	}
	f := NewFile(writeFile(t, "map.json", jsonDoc))
	if _, err := f.Route(context.Background(), "other"); !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
	routes, err := f.Routes(context.Background())
	if err != nil || len(routes) != 1 || routes[0].ID != "commute" {
		t.Fatalf("unexpected routes %+v (%v)", routes, err)
	}
}
