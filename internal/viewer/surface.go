package viewer

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"railmap/internal/railmap"
	"railmap/internal/surface/raster"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Surface draws into an offscreen ebiten image that the game blits to the
// screen each frame.
type Surface struct {
	img *ebiten.Image

	vertices []ebiten.Vertex
	indices  []uint16
}

var _ railmap.Surface = (*Surface)(nil)

func NewSurface(width, height int) *Surface {
	s := &Surface{}
	s.resize(width, height)
	return s
}

func (s *Surface) resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if s.img != nil {
		if b := s.img.Bounds(); b.Dx() == width && b.Dy() == height {
			return
		}
		s.img.Dispose()
	}
	s.img = ebiten.NewImage(width, height)
}

func (s *Surface) Image() *ebiten.Image { return s.img }

func (s *Surface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *Surface) Fill(c color.Color) { s.img.Fill(c) }

func (s *Surface) FillCircle(x, y, r float64, c color.Color) {
	vector.DrawFilledCircle(s.img, float32(x), float32(y), float32(r), c, true)
}

func (s *Surface) StrokeCircle(x, y, r float64, c color.Color, width float64) {
	vector.StrokeCircle(s.img, float32(x), float32(y), float32(r), float32(width), c, true)
}

// StrokeLines tessellates the batch into one path and one draw call.
func (s *Surface) StrokeLines(segs []railmap.Segment, c color.Color, width float64) {
	if len(segs) == 0 {
		return
	}
	var path vector.Path
	for _, seg := range segs {
		path.MoveTo(float32(seg.X1), float32(seg.Y1))
		path.LineTo(float32(seg.X2), float32(seg.Y2))
	}
	s.vertices, s.indices = path.AppendVerticesAndIndicesForStroke(s.vertices[:0], s.indices[:0], &vector.StrokeOptions{
		Width:   float32(width),
		LineCap: vector.LineCapButt,
	})

	r, g, b, a := c.RGBA()
	for i := range s.vertices {
		s.vertices[i].SrcX = 1
		s.vertices[i].SrcY = 1
		s.vertices[i].ColorR = float32(r) / 0xffff
		s.vertices[i].ColorG = float32(g) / 0xffff
		s.vertices[i].ColorB = float32(b) / 0xffff
		s.vertices[i].ColorA = float32(a) / 0xffff
	}
	s.img.DrawTriangles(s.vertices, s.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias:      true,
		ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
	})
}

func (s *Surface) StrokeRect(r railmap.Rect, c color.Color, width float64) {
	vector.StrokeRect(s.img, float32(r.MinX), float32(r.MinY), float32(r.Width()), float32(r.Height()), float32(width), c, true)
}

func (s *Surface) Text(x, y float64, str string, style railmap.TextStyle) {
	face, err := raster.Face(style.Font, style.Size)
	if err != nil {
		return
	}
	if style.Align == railmap.AlignCenter {
		x -= float64(font.MeasureString(face, str).Round()) / 2
	}
	text.Draw(s.img, str, face, int(x), int(y), style.Color)
}
