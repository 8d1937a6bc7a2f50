package railmap

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type GroupInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type StationClickedEvent struct {
	Label  string      `json:"label"`
	Name   string      `json:"name"`
	Groups []GroupInfo `json:"groups"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
}

type ConnectionClickedEvent struct {
	FromLabel string    `json:"from_label"`
	FromName  string    `json:"from_name"`
	ToLabel   string    `json:"to_label"`
	ToName    string    `json:"to_name"`
	Group     GroupInfo `json:"group"`
	LineID    int64     `json:"line_id"`
	TwoWay    bool      `json:"two_way"`
}

// Observer receives renderer activity, typically for metrics.
type Observer interface {
	ObserveFrame(stats FrameStats, d time.Duration)
	ObserveIngest(stats IngestStats)
	ObserveClick(kind RegionKind)
	ObserveDiagnostic(kind DiagnosticKind)
}

type Option func(*Renderer)

func WithLogger(log zerolog.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

// WithDiagnostics installs a sink for recoverable problems. Diagnostics are
// logged at warn level whether or not a sink is installed.
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(r *Renderer) { r.diag = fn }
}

func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.obs = o }
}

// Renderer is a transit map viewer bound to one drawing surface. It is not
// safe for concurrent use; hosts must serialize every call.
type Renderer struct {
	OnStationClicked    func(StationClickedEvent)
	OnConnectionClicked func(ConnectionClickedEvent)

	cfg     Config
	cfgErr  error
	surface Surface

	graph *Graph
	view  *Viewport
	input *InputController
	hits  HitRegistry
	route *Route
	steps []RouteStep

	log  zerolog.Logger
	diag DiagnosticFunc
	obs  Observer
	last FrameStats
}

// New binds a renderer to surface. An invalid cfg is reported and replaced
// by defaults; the error is kept in ConfigErr rather than returned.
func New(surface Surface, cfg Config, opts ...Option) (*Renderer, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	r := &Renderer{
		surface: surface,
		graph:   NewGraph(),
		route:   &Route{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	d := DefaultConfig()
	r.view = NewViewport(d.MinScale, d.MaxScale)
	r.input = NewInputController(r.view, Sensitivity{Scroll: d.ScrollSensitivity, Pinch: d.PinchSensitivity})
	r.applyConfig(cfg)
	return r, nil
}

// SetConfig replaces the options and redraws. It returns the validation
// error, if any; the renderer keeps working with defaults either way.
func (r *Renderer) SetConfig(cfg Config) error {
	r.applyConfig(cfg)
	r.redraw()
	return r.cfgErr
}

func (r *Renderer) applyConfig(cfg Config) {
	r.cfgErr = cfg.Validate()
	if r.cfgErr != nil {
		r.report(Diagnostic{Kind: DiagInvalidConfig, Err: r.cfgErr})
	}
	r.cfg = cfg.normalized()
	r.view.setBounds(r.cfg.MinScale, r.cfg.MaxScale)
	r.input.setSensitivity(Sensitivity{Scroll: r.cfg.ScrollSensitivity, Pinch: r.cfg.PinchSensitivity})
}

func (r *Renderer) Config() Config         { return r.cfg }
func (r *Renderer) ConfigErr() error       { return r.cfgErr }
func (r *Renderer) Graph() *Graph          { return r.graph }
func (r *Renderer) Route() *Route          { return r.route }
func (r *Renderer) Viewport() *Viewport    { return r.view }
func (r *Renderer) Attached() bool         { return r.surface != nil }
func (r *Renderer) LastFrame() FrameStats  { return r.last }
func (r *Renderer) InputState() InputState { return r.input.State() }

// HitRegions returns the last frame's regions, topmost first.
func (r *Renderer) HitRegions() []HitRegion { return r.hits.Regions() }

// RenderOrder returns the station draw order for the current route.
func (r *Renderer) RenderOrder() []*Station { return RenderOrder(r.graph, r.route) }

// SetData rebuilds the graph from flat records and redraws. A previously set
// route is re-matched against the new graph.
func (r *Renderer) SetData(stations []StationRecord, connections []ConnectionRecord) IngestStats {
	stats := r.graph.Ingest(stations, connections, r.report)
	r.route = BuildRoute(r.graph, r.steps, r.report)
	if r.obs != nil {
		r.obs.ObserveIngest(stats)
	}
	r.log.Info().
		Int("stations", stats.Stations).
		Int("groups", stats.Groups).
		Int("lines", stats.Lines).
		Int("connections", stats.Connections).
		Int("skipped", stats.Skipped).
		Msg("map data loaded")
	r.redraw()
	return stats
}

// SetRoute replaces the highlighted route. Nil or empty steps clear it.
func (r *Renderer) SetRoute(steps []RouteStep) {
	r.steps = append(r.steps[:0:0], steps...)
	r.route = BuildRoute(r.graph, r.steps, r.report)
	r.log.Debug().
		Int("steps", len(steps)).
		Int("connections", len(r.route.Connections())).
		Int("stations", r.route.StationCount()).
		Msg("route set")
	r.redraw()
}

func (r *Renderer) ClearRoute() { r.SetRoute(nil) }

// Attach binds a new surface and redraws.
func (r *Renderer) Attach(surface Surface) error {
	if surface == nil {
		return ErrNoSurface
	}
	r.surface = surface
	r.redraw()
	return nil
}

// Detach unbinds the surface. Draw returns ErrDetached until Attach.
func (r *Renderer) Detach() {
	r.surface = nil
	r.hits.Reset()
}

// Draw renders one frame and rebuilds the hit regions.
func (r *Renderer) Draw() (FrameStats, error) {
	if r.surface == nil {
		return FrameStats{}, ErrDetached
	}
	start := time.Now()
	stats := r.render()
	elapsed := time.Since(start)
	r.last = stats
	if r.obs != nil {
		r.obs.ObserveFrame(stats, elapsed)
	}
	r.log.Debug().
		Int("stations", stats.Stations).
		Int("connections", stats.Connections).
		Int("culled", stats.Culled).
		Int("hit_regions", stats.HitRegions).
		Dur("elapsed", elapsed).
		Msg("frame")
	return stats, nil
}

func (r *Renderer) redraw() {
	if _, err := r.Draw(); err != nil && !errors.Is(err, ErrDetached) {
		r.log.Error().Err(err).Msg("redraw failed")
	}
}

// HandleInput runs one gesture event: the viewport is updated, the map is
// redrawn when needed and a qualifying click is resolved against the
// regions of the latest frame.
func (r *Renderer) HandleInput(ev InputEvent) Effect {
	eff := r.input.Handle(ev)
	if eff.Redraw {
		r.redraw()
	}
	if eff.Click {
		if region, ok := r.hits.Resolve(eff.ClickAt.X, eff.ClickAt.Y); ok && r.obs != nil {
			r.obs.ObserveClick(region.Kind)
		}
	}
	return eff
}

func (r *Renderer) PointerDown(x, y float64) {
	r.HandleInput(InputEvent{Kind: PointerDown, X: x, Y: y})
}

func (r *Renderer) PointerMove(x, y float64) {
	r.HandleInput(InputEvent{Kind: PointerMove, X: x, Y: y})
}

func (r *Renderer) PointerUp(x, y float64) {
	r.HandleInput(InputEvent{Kind: PointerUp, X: x, Y: y})
}

func (r *Renderer) TouchStart(touches ...Point) {
	r.HandleInput(InputEvent{Kind: TouchStart, Touches: touches})
}

func (r *Renderer) TouchMove(touches ...Point) {
	r.HandleInput(InputEvent{Kind: TouchMove, Touches: touches})
}

func (r *Renderer) TouchEnd() { r.HandleInput(InputEvent{Kind: TouchEnd}) }

func (r *Renderer) Wheel(deltaY float64) {
	r.HandleInput(InputEvent{Kind: Wheel, DeltaY: deltaY})
}

func (r *Renderer) Resize() { r.HandleInput(InputEvent{Kind: Resize}) }

func (r *Renderer) SetGroupVisible(id int64, visible bool) error {
	g, ok := r.graph.Group(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, id)
	}
	g.Show = visible
	r.redraw()
	return nil
}

func (r *Renderer) SetStationVisible(label string, visible bool) error {
	s, ok := r.graph.Station(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStation, label)
	}
	s.Show = visible
	r.redraw()
	return nil
}

// SetConnectionVisible toggles the connection joining from and to within
// the group, in either direction.
func (r *Renderer) SetConnectionVisible(from, to string, groupID int64, visible bool) error {
	for _, c := range r.graph.Connections() {
		if c.Group.ID == groupID && c.Joins(from, to) {
			c.Show = visible
			r.redraw()
			return nil
		}
	}
	return fmt.Errorf("%w: %s-%s in group %d", ErrUnknownConnection, from, to, groupID)
}

func (r *Renderer) report(d Diagnostic) {
	r.log.Warn().Str("kind", string(d.Kind)).Err(d.Err).Msg("railmap diagnostic")
	if r.obs != nil {
		r.obs.ObserveDiagnostic(d.Kind)
	}
	if r.diag != nil {
		r.diag(d)
	}
}

func (r *Renderer) stationClick(s *Station) func() {
	return func() {
		if r.OnStationClicked == nil {
			return
		}
		groups := make([]GroupInfo, 0, len(s.Groups))
		for _, g := range s.Groups {
			groups = append(groups, groupInfo(g))
		}
		r.OnStationClicked(StationClickedEvent{
			Label:  s.Label,
			Name:   s.Name,
			Groups: groups,
			X:      s.X,
			Y:      s.Y,
		})
	}
}

func (r *Renderer) connectionClick(c *Connection) func() {
	return func() {
		if r.OnConnectionClicked == nil {
			return
		}
		ev := ConnectionClickedEvent{
			FromLabel: c.From.Label,
			FromName:  c.From.Name,
			ToLabel:   c.To.Label,
			ToName:    c.To.Name,
			Group:     groupInfo(c.Group),
			TwoWay:    c.TwoWay,
		}
		if c.Line != nil {
			ev.LineID = c.Line.ID
		}
		r.OnConnectionClicked(ev)
	}
}

func groupInfo(g *Group) GroupInfo {
	return GroupInfo{ID: g.ID, Name: g.Name, Color: g.Color}
}
