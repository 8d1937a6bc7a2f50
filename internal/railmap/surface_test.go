package railmap

import "image/color"

type strokeCall struct {
	segs  []Segment
	color color.Color
	width float64
}

type circleCall struct {
	x, y, r float64
	color   color.Color
}

// recordingSurface captures draw calls for assertions.
type recordingSurface struct {
	w, h    float64
	fills   []color.Color
	circles []circleCall
	strokes []strokeCall
	rects   []Rect
	texts   []string
}

func newRecordingSurface(w, h float64) *recordingSurface {
	return &recordingSurface{w: w, h: h}
}

func (s *recordingSurface) Size() (float64, float64) { return s.w, s.h }
func (s *recordingSurface) Fill(c color.Color)       { s.fills = append(s.fills, c) }

func (s *recordingSurface) FillCircle(x, y, r float64, c color.Color) {
	s.circles = append(s.circles, circleCall{x: x, y: y, r: r, color: c})
}

func (s *recordingSurface) StrokeCircle(x, y, r float64, c color.Color, width float64) {}

func (s *recordingSurface) StrokeLines(segs []Segment, c color.Color, width float64) {
	cp := make([]Segment, len(segs))
	copy(cp, segs)
	s.strokes = append(s.strokes, strokeCall{segs: cp, color: c, width: width})
}

func (s *recordingSurface) StrokeRect(r Rect, c color.Color, width float64) {
	s.rects = append(s.rects, r)
}

func (s *recordingSurface) Text(x, y float64, text string, style TextStyle) {
	s.texts = append(s.texts, text)
}

func (s *recordingSurface) reset() {
	s.fills = nil
	s.circles = nil
	s.strokes = nil
	s.rects = nil
	s.texts = nil
}

func (s *recordingSurface) strokesOfWidth(w float64) []strokeCall {
	var out []strokeCall
	for _, c := range s.strokes {
		if c.width == w {
			out = append(out, c)
		}
	}
	return out
}

func fp(v float64) *float64 { return &v }
