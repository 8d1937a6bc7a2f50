package httpapi

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"railmap/internal/metrics"
	"railmap/internal/railmap"
	"railmap/internal/store"
	"railmap/internal/surface/raster"
)

const (
	defaultFrameWidth  = 1024
	defaultFrameHeight = 768
	maxFrameSide       = 4096
)

// Session is the single shared map. The renderer is not safe for concurrent
// use, so every call goes through mu.
type Session struct {
	mu       sync.Mutex
	log      zerolog.Logger
	renderer *railmap.Renderer
	surface  *raster.Surface
	version  string
	routeID  string

	// collected while mu is held, drained by the caller that triggered them
	clicks      []clickEvent
	diagnostics []diagnostic
}

type clickEvent struct {
	Type       string                          `json:"type"`
	Station    *railmap.StationClickedEvent    `json:"station,omitempty"`
	Connection *railmap.ConnectionClickedEvent `json:"connection,omitempty"`
}

type diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewSession(log zerolog.Logger, cfg railmap.Config, width, height int, m *metrics.Metrics) (*Session, error) {
	if width <= 0 {
		width = defaultFrameWidth
	}
	if height <= 0 {
		height = defaultFrameHeight
	}
	s := &Session{log: log, surface: raster.New(width, height)}
	r, err := railmap.New(s.surface, cfg,
		railmap.WithLogger(log),
		railmap.WithObserver(m),
		railmap.WithDiagnostics(s.collectDiagnostic),
	)
	if err != nil {
		return nil, err
	}
	r.OnStationClicked = func(ev railmap.StationClickedEvent) {
		s.clicks = append(s.clicks, clickEvent{Type: "station", Station: &ev})
	}
	r.OnConnectionClicked = func(ev railmap.ConnectionClickedEvent) {
		s.clicks = append(s.clicks, clickEvent{Type: "connection", Connection: &ev})
	}
	s.renderer = r
	return s, nil
}

func (s *Session) collectDiagnostic(d railmap.Diagnostic) {
	s.diagnostics = append(s.diagnostics, diagnostic{Kind: string(d.Kind), Message: d.Error()})
}

// Apply loads a snapshot into the renderer. It has the syncworker.ApplyFunc
// signature so the worker can drive the session directly.
func (s *Session) Apply(_ context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.SetData(snap.Stations, snap.Connections)
	s.version = snap.Version
	s.diagnostics = nil
	return nil
}

// do runs fn with the lock held and returns the diagnostics and clicks it
// produced.
func (s *Session) do(fn func(r *railmap.Renderer) error) ([]diagnostic, []clickEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = nil
	s.clicks = nil
	err := fn(s.renderer)
	diags, clicks := s.diagnostics, s.clicks
	s.diagnostics, s.clicks = nil, nil
	return diags, clicks, err
}

// setConfig applies cfg only when it validates, so a rejected config never
// reaches the renderer's default fallback.
func (s *Session) setConfig(cfg railmap.Config) (railmap.Config, error) {
	if err := cfg.Validate(); err != nil {
		return railmap.Config{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.renderer.SetConfig(cfg); err != nil {
		return railmap.Config{}, err
	}
	return s.renderer.Config(), nil
}

// resize swaps in a surface of the new size. Callers hold mu.
func (s *Session) resize(width, height int) error {
	if width <= 0 || width > maxFrameSide || height <= 0 || height > maxFrameSide {
		return errInvalidSize
	}
	w, h := s.surface.Size()
	if int(w) == width && int(h) == height {
		return nil
	}
	next := raster.New(width, height)
	if err := s.renderer.Attach(next); err != nil {
		return err
	}
	s.surface = next
	return nil
}

// writePNG draws a fresh frame and encodes it.
func (s *Session) writePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.renderer.Draw(); err != nil {
		return err
	}
	return s.surface.EncodePNG(w)
}
