package railmap

// Viewport is the camera: world offset plus a world-to-screen scale.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`

	minScale float64
	maxScale float64
}

func NewViewport(minScale, maxScale float64) *Viewport {
	v := &Viewport{Scale: 1, minScale: minScale, maxScale: maxScale}
	v.clamp()
	return v
}

// ToScreen maps a world point onto a surface of the given size. The world
// offset sits at the centre of the surface.
func (v *Viewport) ToScreen(wx, wy, width, height float64) (sx, sy float64) {
	sx = (wx-v.X)*v.Scale + width/2
	sy = (wy-v.Y)*v.Scale + height/2
	return
}

// ToWorld is the inverse of ToScreen.
func (v *Viewport) ToWorld(sx, sy, width, height float64) (wx, wy float64) {
	wx = (sx-width/2)/v.Scale + v.X
	wy = (sy-height/2)/v.Scale + v.Y
	return
}

// Zoom shrinks the scale by delta of itself; positive delta zooms out.
func (v *Viewport) Zoom(delta float64) {
	v.Scale -= delta * v.Scale
	v.clamp()
}

// Pan moves the camera by a screen-space drag of (dx, dy) pixels.
func (v *Viewport) Pan(dx, dy float64) {
	v.X -= dx / v.Scale
	v.Y -= dy / v.Scale
}

func (v *Viewport) Reset() {
	v.X, v.Y, v.Scale = 0, 0, 1
	v.clamp()
}

func (v *Viewport) Bounds() (minScale, maxScale float64) { return v.minScale, v.maxScale }

func (v *Viewport) setBounds(minScale, maxScale float64) {
	v.minScale, v.maxScale = minScale, maxScale
	v.clamp()
}

func (v *Viewport) clamp() {
	// NaN fails both comparisons below.
	if v.Scale != v.Scale {
		v.Scale = v.minScale
	}
	if v.Scale < v.minScale {
		v.Scale = v.minScale
	} else if v.Scale > v.maxScale {
		v.Scale = v.maxScale
	}
}
