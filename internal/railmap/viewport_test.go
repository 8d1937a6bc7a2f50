package railmap

import (
	"math"
	"testing"
)

func TestViewport_ZoomStaysWithinBounds(t *testing.T) {
	v := NewViewport(0.5, 4)
	deltas := []float64{-10, -0.5, 0.9, 5, 1, -3, 0.999, -100, 2, math.Inf(1), -0.1}
	for i, d := range deltas {
		v.Zoom(d)
		if v.Scale < 0.5 || v.Scale > 4 || math.IsNaN(v.Scale) {
			t.Fatalf("step %d: zoom(%v) left scale %v outside [0.5, 4]", i, d, v.Scale)
		}
	}
}

func TestViewport_ZoomShrinksScaleByDelta(t *testing.T) {
	v := NewViewport(0.1, 10)
	v.Zoom(0.25)
	if v.Scale != 0.75 {
		t.Fatalf("expected scale 0.75, got %v", v.Scale)
	}
	v.Zoom(-1)
	if v.Scale != 1.5 {
		t.Fatalf("expected scale 1.5, got %v", v.Scale)
	}
}

func TestViewport_PanIsScaleIndependentOnScreen(t *testing.T) {
	for _, scale := range []float64{0.5, 1, 2, 8} {
		v := NewViewport(0.1, 10)
		v.Scale = scale
		v.X, v.Y = 3, -7

		v.Pan(12, -6)

		if want := 3 - 12/scale; v.X != want {
			t.Fatalf("scale %v: expected x %v, got %v", scale, want, v.X)
		}
		if want := -7 + 6/scale; v.Y != want {
			t.Fatalf("scale %v: expected y %v, got %v", scale, want, v.Y)
		}

		sx, sy := v.ToScreen(0, 0, 100, 100)
		v.Pan(10, 10)
		sx2, sy2 := v.ToScreen(0, 0, 100, 100)
		if math.Abs(sx2-sx-10) > 1e-9 || math.Abs(sy2-sy-10) > 1e-9 {
			t.Fatalf("scale %v: a 10px drag moved the world by (%v, %v)", scale, sx2-sx, sy2-sy)
		}
	}
}

func TestViewport_ToWorldInvertsToScreen(t *testing.T) {
	v := NewViewport(0.1, 10)
	v.X, v.Y, v.Scale = 40, -12, 2.5

	sx, sy := v.ToScreen(17, 33, 640, 480)
	wx, wy := v.ToWorld(sx, sy, 640, 480)
	if math.Abs(wx-17) > 1e-9 || math.Abs(wy-33) > 1e-9 {
		t.Fatalf("expected (17, 33), got (%v, %v)", wx, wy)
	}

	cx, cy := v.ToScreen(40, -12, 640, 480)
	if cx != 320 || cy != 240 {
		t.Fatalf("expected camera centre at surface centre, got (%v, %v)", cx, cy)
	}
}

func TestViewport_ResetClampsIntoBounds(t *testing.T) {
	v := NewViewport(2, 5)
	if v.Scale != 2 {
		t.Fatalf("expected initial scale clamped to 2, got %v", v.Scale)
	}
	v.X, v.Y = 10, 10
	v.Reset()
	if v.X != 0 || v.Y != 0 || v.Scale != 2 {
		t.Fatalf("unexpected reset viewport %+v", *v)
	}
}
