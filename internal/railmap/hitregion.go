package railmap

import "math"

// Rect is an axis-aligned box in surface pixels.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// RectAround returns the box spanning both points, grown by pad on every side.
func RectAround(x1, y1, x2, y2, pad float64) Rect {
	return Rect{
		MinX: math.Min(x1, x2) - pad,
		MinY: math.Min(y1, y2) - pad,
		MaxX: math.Max(x1, x2) + pad,
		MaxY: math.Max(y1, y2) + pad,
	}
}

// Contains is inclusive on all four edges.
func (r Rect) Contains(x, y float64) bool {
	return r.MinX <= x && x <= r.MaxX &&
		r.MinY <= y && y <= r.MaxY
}

// Overlaps reports whether r intersects the surface rectangle [0,w]x[0,h].
func (r Rect) Overlaps(w, h float64) bool {
	return r.MaxX >= 0 && r.MinX <= w && r.MaxY >= 0 && r.MinY <= h
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

type RegionKind int

const (
	RegionStation RegionKind = iota
	RegionConnection
)

func (k RegionKind) String() string {
	if k == RegionConnection {
		return "connection"
	}
	return "station"
}

type HitRegion struct {
	Box     Rect
	Kind    RegionKind
	OnClick func()
}

// HitRegistry collects the clickable boxes of one frame. Regions are added in
// draw order; Seal flips them so the topmost comes first.
type HitRegistry struct {
	regions []HitRegion
	sealed  bool
}

func (h *HitRegistry) Reset() {
	h.regions = h.regions[:0]
	h.sealed = false
}

func (h *HitRegistry) Add(box Rect, kind RegionKind, onClick func()) {
	h.regions = append(h.regions, HitRegion{Box: box, Kind: kind, OnClick: onClick})
}

func (h *HitRegistry) Seal() {
	if h.sealed {
		return
	}
	for i, j := 0, len(h.regions)-1; i < j; i, j = i+1, j-1 {
		h.regions[i], h.regions[j] = h.regions[j], h.regions[i]
	}
	h.sealed = true
}

// Resolve fires the callback of the first region containing (x, y) and
// reports whether one fired. At most one callback runs per call.
func (h *HitRegistry) Resolve(x, y float64) (HitRegion, bool) {
	for _, r := range h.regions {
		if !r.Box.Contains(x, y) {
			continue
		}
		if r.OnClick != nil {
			r.OnClick()
		}
		return r, true
	}
	return HitRegion{}, false
}

func (h *HitRegistry) Len() int { return len(h.regions) }

// Regions returns a copy in the current iteration order.
func (h *HitRegistry) Regions() []HitRegion {
	out := make([]HitRegion, len(h.regions))
	copy(out, h.regions)
	return out
}
