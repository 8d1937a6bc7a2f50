package railmap

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Config holds the renderer options. Zero values mean "use the default".
// StationGroupOffset and ShowStationsWithNoConnections are pointers because
// their zero values are meaningful.
type Config struct {
	BackgroundStyle               string   `json:"background_style" yaml:"background_style" toml:"background_style"`
	FontSize                      float64  `json:"font_size" yaml:"font_size" toml:"font_size"`
	Font                          string   `json:"font" yaml:"font" toml:"font"`
	FontColor                     string   `json:"font_color" yaml:"font_color" toml:"font_color"`
	LineWidth                     float64  `json:"line_width" yaml:"line_width" toml:"line_width"`
	StationGroupOffset            *float64 `json:"station_group_offset,omitempty" yaml:"station_group_offset" toml:"station_group_offset"`
	StationRadius                 float64  `json:"station_radius" yaml:"station_radius" toml:"station_radius"`
	MinScale                      float64  `json:"min_scale" yaml:"min_scale" toml:"min_scale"`
	MaxScale                      float64  `json:"max_scale" yaml:"max_scale" toml:"max_scale"`
	ScrollSensitivity             float64  `json:"scroll_sensitivity" yaml:"scroll_sensitivity" toml:"scroll_sensitivity"`
	PinchSensitivity              float64  `json:"pinch_sensitivity" yaml:"pinch_sensitivity" toml:"pinch_sensitivity"`
	ShowStationsWithNoConnections *bool    `json:"show_stations_with_no_connections,omitempty" yaml:"show_stations_with_no_connections" toml:"show_stations_with_no_connections"`
	DebugOverlay                  bool     `json:"debug_overlay" yaml:"debug_overlay" toml:"debug_overlay"`
	RouteDimAlpha                 float64  `json:"route_dim_alpha" yaml:"route_dim_alpha" toml:"route_dim_alpha"`
}

const (
	defaultBackground         = "#111"
	defaultFontSize           = 10
	defaultFont               = "sans-serif"
	defaultFontColor          = "#fff"
	defaultLineWidth          = 8
	defaultStationGroupOffset = 12
	defaultStationRadius      = 8
	defaultMinScale           = 0.05
	defaultMaxScale           = 20
	defaultScrollSensitivity  = 0.001
	defaultPinchSensitivity   = 0.005
	defaultRouteDimAlpha      = 0.25
)

func DefaultConfig() Config {
	show := true
	offset := float64(defaultStationGroupOffset)
	return Config{
		BackgroundStyle:               defaultBackground,
		FontSize:                      defaultFontSize,
		Font:                          defaultFont,
		FontColor:                     defaultFontColor,
		LineWidth:                     defaultLineWidth,
		StationGroupOffset:            &offset,
		StationRadius:                 defaultStationRadius,
		MinScale:                      defaultMinScale,
		MaxScale:                      defaultMaxScale,
		ScrollSensitivity:             defaultScrollSensitivity,
		PinchSensitivity:              defaultPinchSensitivity,
		ShowStationsWithNoConnections: &show,
		RouteDimAlpha:                 defaultRouteDimAlpha,
	}
}

// ShowsEmptyStations reports the effective show_stations_with_no_connections.
func (c Config) ShowsEmptyStations() bool {
	return c.ShowStationsWithNoConnections == nil || *c.ShowStationsWithNoConnections
}

// GroupOffset reports the effective station_group_offset in screen pixels.
func (c Config) GroupOffset() float64 {
	if c.StationGroupOffset == nil {
		return defaultStationGroupOffset
	}
	return *c.StationGroupOffset
}

// Validate reports every invalid option. Unset (zero) options are valid.
func (c Config) Validate() error {
	var errs []error
	bad := func(field string, v any) {
		errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidConfig, field, v))
	}

	if c.BackgroundStyle != "" {
		if _, err := ParseColor(c.BackgroundStyle); err != nil {
			bad("background_style", c.BackgroundStyle)
		}
	}
	if c.FontColor != "" {
		if _, err := ParseColor(c.FontColor); err != nil {
			bad("font_color", c.FontColor)
		}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"font_size", c.FontSize},
		{"line_width", c.LineWidth},
		{"station_group_offset", c.GroupOffset()},
		{"station_radius", c.StationRadius},
		{"min_scale", c.MinScale},
		{"max_scale", c.MaxScale},
		{"scroll_sensitivity", c.ScrollSensitivity},
		{"pinch_sensitivity", c.PinchSensitivity},
	} {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			bad(f.name, f.v)
		}
	}
	if c.RouteDimAlpha < 0 || c.RouteDimAlpha > 1 || math.IsNaN(c.RouteDimAlpha) {
		bad("route_dim_alpha", c.RouteDimAlpha)
	}

	lo, hi := c.scaleBounds()
	if lo > hi {
		errs = append(errs, fmt.Errorf("%w: min_scale %v > max_scale %v", ErrInvalidConfig, lo, hi))
	}
	return errors.Join(errs...)
}

func (c Config) scaleBounds() (float64, float64) {
	lo, hi := c.MinScale, c.MaxScale
	if lo == 0 {
		lo = defaultMinScale
	}
	if hi == 0 {
		hi = defaultMaxScale
	}
	return lo, hi
}

// normalized fills unset options with defaults and replaces invalid ones.
// A min/max scale conflict resets both bounds.
func (c Config) normalized() Config {
	d := DefaultConfig()

	if c.BackgroundStyle == "" {
		c.BackgroundStyle = d.BackgroundStyle
	} else if _, err := ParseColor(c.BackgroundStyle); err != nil {
		c.BackgroundStyle = d.BackgroundStyle
	}
	if c.FontColor == "" {
		c.FontColor = d.FontColor
	} else if _, err := ParseColor(c.FontColor); err != nil {
		c.FontColor = d.FontColor
	}
	if strings.TrimSpace(c.Font) == "" {
		c.Font = d.Font
	}

	positive := func(v *float64, def float64) {
		if *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	positive(&c.FontSize, d.FontSize)
	positive(&c.LineWidth, d.LineWidth)
	positive(&c.StationRadius, d.StationRadius)
	positive(&c.MinScale, d.MinScale)
	positive(&c.MaxScale, d.MaxScale)
	positive(&c.ScrollSensitivity, d.ScrollSensitivity)
	positive(&c.PinchSensitivity, d.PinchSensitivity)
	if o := c.GroupOffset(); o < 0 || math.IsNaN(o) || math.IsInf(o, 0) {
		c.StationGroupOffset = d.StationGroupOffset
	} else {
		c.StationGroupOffset = &o
	}
	if c.MinScale > c.MaxScale {
		c.MinScale, c.MaxScale = d.MinScale, d.MaxScale
	}
	if c.RouteDimAlpha <= 0 || c.RouteDimAlpha > 1 || math.IsNaN(c.RouteDimAlpha) {
		c.RouteDimAlpha = d.RouteDimAlpha
	}
	if c.ShowStationsWithNoConnections == nil {
		c.ShowStationsWithNoConnections = d.ShowStationsWithNoConnections
	}
	return c
}
