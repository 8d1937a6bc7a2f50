package railmap

import "image/color"

type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
)

type TextStyle struct {
	Font  string
	Size  float64
	Color color.Color
	Align TextAlign
}

// Segment is a straight line in surface pixels.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Surface is the drawing target. All coordinates are surface pixels with the
// origin at the top-left corner.
type Surface interface {
	Size() (width, height float64)
	// Fill paints the whole surface.
	Fill(c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	StrokeCircle(x, y, r float64, c color.Color, width float64)
	// StrokeLines strokes a batch of segments sharing one colour and width.
	StrokeLines(segs []Segment, c color.Color, width float64)
	StrokeRect(r Rect, c color.Color, width float64)
	Text(x, y float64, s string, style TextStyle)
}
