// Package raster draws the map into an in-memory RGBA image with
// fogleman/gg. It backs PNG export and the HTTP frame endpoint.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"railmap/internal/railmap"
)

// Surface implements railmap.Surface over a gg context.
type Surface struct {
	dc    *gg.Context
	faces *faceCache
}

var _ railmap.Surface = (*Surface)(nil)

func New(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dc := gg.NewContext(width, height)
	dc.SetLineCapButt()
	return &Surface{dc: dc, faces: sharedFaces}
}

func (s *Surface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *Surface) Fill(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *Surface) FillCircle(x, y, r float64, c color.Color) {
	s.dc.DrawCircle(x, y, r)
	s.dc.SetColor(c)
	s.dc.Fill()
}

func (s *Surface) StrokeCircle(x, y, r float64, c color.Color, width float64) {
	s.dc.DrawCircle(x, y, r)
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.Stroke()
}

// StrokeLines strokes the whole batch as a single path.
func (s *Surface) StrokeLines(segs []railmap.Segment, c color.Color, width float64) {
	if len(segs) == 0 {
		return
	}
	s.dc.NewSubPath()
	for _, seg := range segs {
		s.dc.MoveTo(seg.X1, seg.Y1)
		s.dc.LineTo(seg.X2, seg.Y2)
	}
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.Stroke()
}

func (s *Surface) StrokeRect(r railmap.Rect, c color.Color, width float64) {
	s.dc.DrawRectangle(r.MinX, r.MinY, r.Width(), r.Height())
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.Stroke()
}

func (s *Surface) Text(x, y float64, text string, style railmap.TextStyle) {
	face, err := s.faces.face(style.Font, style.Size)
	if err != nil {
		return
	}
	s.dc.SetFontFace(face)
	s.dc.SetColor(style.Color)
	ax := 0.0
	if style.Align == railmap.AlignCenter {
		ax = 0.5
	}
	s.dc.DrawStringAnchored(text, x, y, ax, 0)
}

func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the current contents as a PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, s.dc.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (s *Surface) SavePNG(path string) error {
	return s.dc.SavePNG(path)
}

// faceCache shares parsed fonts and sized faces between surfaces. The faces
// themselves are not safe for concurrent drawing.
type faceCache struct {
	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

var sharedFaces = &faceCache{
	fonts: make(map[string]*truetype.Font),
	faces: make(map[faceKey]font.Face),
}

// family maps a CSS-ish font name onto one of the bundled Go fonts.
func family(name string) (string, []byte) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "mono") || strings.Contains(n, "courier"):
		return "mono", gomono.TTF
	case strings.Contains(n, "bold"):
		return "bold", gobold.TTF
	default:
		return "regular", goregular.TTF
	}
}

// Face returns the bundled Go font closest to name at size points.
func Face(name string, size float64) (font.Face, error) {
	return sharedFaces.face(name, size)
}

func (c *faceCache) face(name string, size float64) (font.Face, error) {
	fam, ttf := family(name)
	if size <= 0 {
		size = 10
	}
	key := faceKey{family: fam, size: size}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	parsed, ok := c.fonts[fam]
	if !ok {
		var err error
		parsed, err = truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", fam, err)
		}
		c.fonts[fam] = parsed
	}
	f := truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	c.faces[key] = f
	return f, nil
}
