package railmap

import (
	"image/color"
)

const (
	labelOffset      = 20
	textCullRadius   = 50
	markerStroke     = 2
	fanSpineWidth    = 15
	debugStrokeWidth = 2
)

// FrameStats describes the last rendered frame.
type FrameStats struct {
	Stations    int  `json:"stations"`
	Connections int  `json:"connections"`
	Culled      int  `json:"culled"`
	HitRegions  int  `json:"hit_regions"`
	RouteActive bool `json:"route_active"`
}

// frame holds the per-draw state; it lives for a single render call.
type frame struct {
	r     *Renderer
	s     Surface
	v     *Viewport
	cfg   *Config
	w, h  float64
	text  color.NRGBA
	stats FrameStats
}

func (r *Renderer) render() FrameStats {
	w, h := r.surface.Size()
	f := &frame{
		r:    r,
		s:    r.surface,
		v:    r.view,
		cfg:  &r.cfg,
		w:    w,
		h:    h,
		text: colorOr(r.cfg.FontColor, white),
	}

	r.hits.Reset()
	f.s.Fill(colorOr(r.cfg.BackgroundStyle, color.NRGBA{A: 0xff}))

	order := RenderOrder(r.graph, r.route)
	all := r.graph.Connections()
	if r.route.Active() {
		f.stats.RouteActive = true
		split := len(order) - r.route.StationCount()
		for _, s := range order[:split] {
			f.station(s, true)
		}
		f.connections(all, func(c *Connection) bool { return !r.route.HasConnection(c) }, true)
		f.connections(r.route.Connections(), func(*Connection) bool { return true }, false)
		for _, s := range order[split:] {
			f.station(s, false)
		}
	} else {
		f.connections(all, func(*Connection) bool { return true }, false)
		for _, s := range order {
			f.station(s, false)
		}
	}

	r.hits.Seal()
	f.stats.HitRegions = r.hits.Len()

	if r.cfg.DebugOverlay {
		for _, region := range r.hits.Regions() {
			f.s.StrokeRect(region.Box, debugColor, debugStrokeWidth)
		}
	}
	return f.stats
}

// connections strokes the included connections, one StrokeLines call per run
// of connections sharing a group.
func (f *frame) connections(conns []*Connection, include func(*Connection) bool, dimmed bool) {
	var (
		batch []Segment
		cur   *Group
		col   color.NRGBA
	)
	flush := func() {
		if len(batch) > 0 {
			f.s.StrokeLines(batch, col, f.cfg.LineWidth)
			batch = batch[:0]
		}
	}
	for _, c := range conns {
		if !include(c) {
			continue
		}
		if c.Group != cur {
			flush()
			cur = c.Group
			col = colorOr(cur.Color, white)
			if dimmed {
				col = dim(col, f.cfg.RouteDimAlpha)
			}
		}
		batch = f.connection(c, batch)
	}
	flush()
}

// connection appends the two legs of an L-shaped connection: a vertical leg
// at the source x, then a horizontal leg at the target y. Each leg overlaps
// the corner by half the stroke width so the join is square.
func (f *frame) connection(c *Connection, batch []Segment) []Segment {
	if !c.Show || !c.Group.Show || !c.From.Show || !c.To.Show {
		return batch
	}
	fromIdx := groupIndex(c.From.VisibleGroups(), c.Group)
	toIdx := groupIndex(c.To.VisibleGroups(), c.Group)
	if fromIdx < 0 || toIdx < 0 {
		return batch
	}

	step := f.cfg.GroupOffset() / f.v.Scale
	x := c.From.X + float64(fromIdx)*step
	y := c.From.Y - float64(fromIdx)*step
	x2 := c.To.X + float64(toIdx)*step
	y2 := c.To.Y - float64(toIdx)*step

	half := f.cfg.LineWidth / 2 / f.v.Scale
	cornerY := y2 - half
	if y < y2 {
		cornerY = y2 + half
	}
	cornerX := x - half
	if x > x2 {
		cornerX = x + half
	}

	onClick := f.r.connectionClick(c)
	before := len(batch)
	batch = f.segment(x, y, x, cornerY, f.cfg.LineWidth, onClick, batch)
	batch = f.segment(cornerX, y2, x2, y2, f.cfg.LineWidth, onClick, batch)
	if len(batch) > before {
		f.stats.Connections++
	}
	return batch
}

// segment culls a stroke of the given screen width only when no part of it
// reaches the surface.
func (f *frame) segment(wx1, wy1, wx2, wy2, width float64, onClick func(), batch []Segment) []Segment {
	x1, y1 := f.v.ToScreen(wx1, wy1, f.w, f.h)
	x2, y2 := f.v.ToScreen(wx2, wy2, f.w, f.h)
	bounds := RectAround(x1, y1, x2, y2, width/2)
	if !bounds.Overlaps(f.w, f.h) {
		f.stats.Culled++
		return batch
	}
	if onClick != nil {
		f.r.hits.Add(bounds, RegionConnection, onClick)
	}
	return append(batch, Segment{X1: x1, Y1: y1, X2: x2, Y2: y2})
}

func (f *frame) station(s *Station, dimmed bool) {
	if !s.Show {
		return
	}
	groups := s.VisibleGroups()
	if len(groups) == 0 && !f.cfg.ShowsEmptyStations() {
		return
	}

	alpha := 1.0
	if dimmed {
		alpha = f.cfg.RouteDimAlpha
	}
	onClick := f.r.stationClick(s)
	x, y := s.X, s.Y
	step := f.cfg.GroupOffset() / f.v.Scale

	f.label(x, y+labelOffset/f.v.Scale, s.Name, dim(f.text, alpha))

	if len(groups) > 1 {
		n := float64(len(groups) - 1)
		spine := []Segment{}
		spine = f.segment(x, y, x+step*n, y-step*n, fanSpineWidth, nil, spine)
		if len(spine) > 0 {
			f.s.StrokeLines(spine, dim(white, alpha), fanSpineWidth)
		}
	}

	drawn := false
	if len(groups) == 0 {
		drawn = f.marker(x, y, dim(white, alpha), alpha, onClick)
	}
	for _, g := range groups {
		if f.marker(x, y, dim(colorOr(g.Color, white), alpha), alpha, onClick) {
			drawn = true
		}
		x += step
		y -= step
	}
	if drawn {
		f.stats.Stations++
	}
}

// marker draws one station circle with a constant screen radius.
func (f *frame) marker(wx, wy float64, fill color.NRGBA, alpha float64, onClick func()) bool {
	x, y := f.v.ToScreen(wx, wy, f.w, f.h)
	r := f.cfg.StationRadius
	bounds := RectAround(x, y, x, y, r+markerStroke)
	if !bounds.Overlaps(f.w, f.h) {
		f.stats.Culled++
		return false
	}
	f.r.hits.Add(bounds, RegionStation, onClick)
	f.s.FillCircle(x, y, r, fill)
	f.s.StrokeCircle(x, y, r, dim(white, alpha), markerStroke)
	return true
}

func (f *frame) label(wx, wy float64, text string, c color.NRGBA) {
	if text == "" {
		return
	}
	x, y := f.v.ToScreen(wx, wy, f.w, f.h)
	if x+textCullRadius < 0 || x-textCullRadius > f.w || y+textCullRadius < 0 || y-textCullRadius > f.h {
		f.stats.Culled++
		return
	}
	f.s.Text(x, y, text, TextStyle{
		Font:  f.cfg.Font,
		Size:  f.cfg.FontSize,
		Color: c,
		Align: AlignCenter,
	})
}

func groupIndex(groups []*Group, g *Group) int {
	for i, sg := range groups {
		if sg == g {
			return i
		}
	}
	return -1
}
