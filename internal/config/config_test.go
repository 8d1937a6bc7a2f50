package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"railmap/internal/railmap"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_emptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LineWidth != railmap.DefaultConfig().LineWidth {
		t.Fatalf("expected default line width, got %v", cfg.LineWidth)
	}
}

func TestLoad_overridesOnlyGivenKeys(t *testing.T) {
	cases := map[string]string{
		"cfg.yaml": "line_width: 4\nshow_stations_with_no_connections: false\n",
		"cfg.toml": "line_width = 4.0\nshow_stations_with_no_connections = false\n",
		"cfg.json": `{"line_width": 4, "show_stations_with_no_connections": false}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(write(t, name, body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.LineWidth != 4 {
				t.Fatalf("expected line width 4, got %v", cfg.LineWidth)
			}
			if cfg.ShowsEmptyStations() {
				t.Fatalf("expected empty stations hidden")
			}
			if cfg.StationRadius != railmap.DefaultConfig().StationRadius {
				t.Fatalf("expected default station radius, got %v", cfg.StationRadius)
			}
		})
	}
}

func TestLoad_rejectsUnknownKeys(t *testing.T) {
	for name, body := range map[string]string{
		"cfg.toml": "line_widht = 4.0\n",
		"cfg.json": `{"line_widht": 4}`,
	} {
		if _, err := Load(write(t, name, body)); err == nil {
			t.Fatalf("%s: expected an error for an unknown key", name)
		}
	}
}

func TestLoad_unsupportedExtension(t *testing.T) {
	if _, err := Load(write(t, "cfg.ini", "x=1")); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestEncode_roundTripsThroughDecode(t *testing.T) {
	in := railmap.DefaultConfig()
	in.DebugOverlay = true
	for _, format := range []string{"toml", "yaml", "json"} {
		var buf bytes.Buffer
		if err := Encode(&buf, format, in); err != nil {
			t.Fatalf("%s: Encode: %v", format, err)
		}
		var out railmap.Config
		if err := Decode("."+format, buf.Bytes(), &out); err != nil {
			t.Fatalf("%s: Decode: %v", format, err)
		}
		if !out.DebugOverlay || out.BackgroundStyle != in.BackgroundStyle {
			t.Fatalf("%s: unexpected config %+v", format, out)
		}
	}
	if err := Encode(&bytes.Buffer{}, "ini", in); err == nil || !strings.Contains(err.Error(), "ini") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}
