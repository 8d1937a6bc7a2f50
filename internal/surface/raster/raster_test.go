package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"railmap/internal/railmap"
)

func TestSurface_drawsPixels(t *testing.T) {
	s := New(100, 100)
	if w, h := s.Size(); w != 100 || h != 100 {
		t.Fatalf("expected 100x100, got %vx%v", w, h)
	}
	s.Fill(color.NRGBA{A: 0xff})
	s.FillCircle(50, 50, 10, color.NRGBA{R: 0xff, A: 0xff})
	s.StrokeLines([]railmap.Segment{{X1: 0, Y1: 10, X2: 100, Y2: 10}}, color.NRGBA{G: 0xff, A: 0xff}, 4)

	r, _, _, _ := s.Image().At(50, 50).RGBA()
	if r>>8 != 0xff {
		t.Fatalf("expected a red circle centre, got r=%d", r>>8)
	}
	_, g, _, _ := s.Image().At(50, 10).RGBA()
	if g>>8 != 0xff {
		t.Fatalf("expected a green line, got g=%d", g>>8)
	}
	_, g, _, _ = s.Image().At(50, 90).RGBA()
	if g != 0 {
		t.Fatalf("expected background below the line")
	}
}

func TestSurface_textAndPNG(t *testing.T) {
	s := New(200, 50)
	s.Fill(color.Black)
	s.Text(100, 30, "Alpha", railmap.TextStyle{Font: "sans-serif", Size: 16, Color: color.White, Align: railmap.AlignCenter})
	s.Text(10, 30, "mono", railmap.TextStyle{Font: "monospace", Size: 12, Color: color.White})

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lit := 0
	for x := 80; x < 120; x++ {
		for y := 15; y < 35; y++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatalf("expected the label to light some pixels")
	}
}

func TestFaceCache_reusesFaces(t *testing.T) {
	a, err := sharedFaces.face("Helvetica", 10)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	b, _ := sharedFaces.face("sans-serif", 10)
	if a != b {
		t.Fatalf("expected both names to resolve to the same cached face")
	}
	if fam, _ := family("Courier New"); fam != "mono" {
		t.Fatalf("expected mono, got %s", fam)
	}
}

func TestRenderer_onRaster(t *testing.T) {
	s := New(400, 400)
	r, err := railmap.New(s, railmap.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	x0, z0, x1 := 0.0, 0.0, 100.0
	r.SetData([]railmap.StationRecord{
		{Label: "A", Name: "Alpha", X: &x0, Z: &z0},
		{Label: "B", Name: "Beta", X: &x1, Z: &z0},
	}, []railmap.ConnectionRecord{{FromLabel: "A", ToLabel: "B", GroupID: 1, Color: "ff0000", LineID: 1}})

	// midway along the horizontal leg
	red, _, _, _ := s.Image().At(250, 200).RGBA()
	if red>>8 != 0xff {
		t.Fatalf("expected the red line at (250,200), got r=%d", red>>8)
	}
}
