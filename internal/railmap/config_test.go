package railmap

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

func TestConfig_ZeroValueIsValid(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	n := Config{}.normalized()
	d := DefaultConfig()
	if n.LineWidth != d.LineWidth || n.MinScale != d.MinScale || n.Font != d.Font || !n.ShowsEmptyStations() {
		t.Fatalf("expected defaults, got %+v", n)
	}
}

func TestConfig_ValidateCollectsEveryProblem(t *testing.T) {
	err := Config{
		FontColor:        "#zzz",
		StationRadius:    -3,
		PinchSensitivity: math.NaN(),
		RouteDimAlpha:    2,
	}.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 4 {
		t.Fatalf("expected 4 joined errors, got %v", err)
	}
}

func TestConfig_ScaleConflictResetsBothBounds(t *testing.T) {
	c := Config{MinScale: 5, MaxScale: 2}
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	n := c.normalized()
	if n.MinScale != defaultMinScale || n.MaxScale != defaultMaxScale {
		t.Fatalf("expected default bounds, got %v..%v", n.MinScale, n.MaxScale)
	}

	if err := (Config{MinScale: 30}).Validate(); err == nil {
		t.Fatalf("expected min_scale above the default max to fail")
	}
}

func TestConfig_ExplicitFalseKept(t *testing.T) {
	hide := false
	if (Config{ShowStationsWithNoConnections: &hide}).normalized().ShowsEmptyStations() {
		t.Fatalf("expected an explicit false to survive normalisation")
	}
}

func TestConfig_GroupOffset(t *testing.T) {
	if got := (Config{}).normalized().GroupOffset(); got != defaultStationGroupOffset {
		t.Fatalf("expected the default offset when unset, got %v", got)
	}
	if got := (Config{StationGroupOffset: fp(0)}).normalized().GroupOffset(); got != 0 {
		t.Fatalf("expected an explicit zero offset kept, got %v", got)
	}

	neg := Config{StationGroupOffset: fp(-4)}
	if err := neg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if got := neg.normalized().GroupOffset(); got != defaultStationGroupOffset {
		t.Fatalf("expected a negative offset replaced by the default, got %v", got)
	}
}

func TestSetConfig_UpdatesViewportBounds(t *testing.T) {
	r, _ := newTestRenderer(t, Config{})
	r.Wheel(-100000)
	if r.Viewport().Scale != defaultMaxScale {
		t.Fatalf("expected max zoom, got %v", r.Viewport().Scale)
	}
	if err := r.SetConfig(Config{MaxScale: 4}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if r.Viewport().Scale != 4 {
		t.Fatalf("expected the scale clamped to 4, got %v", r.Viewport().Scale)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		{"ff0000", color.NRGBA{0xff, 0, 0, 0xff}},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.in, tc.want, got)
		}
	}
	for _, bad := range []string{"", "#12", "red", "#gggggg"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestDim(t *testing.T) {
	if got := dim(white, 0.5).A; got != 127 {
		t.Fatalf("expected 127, got %d", got)
	}
}
