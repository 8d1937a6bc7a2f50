package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"railmap/internal/railmap"
)

// wheelNotch converts one ebiten wheel step into browser-style deltaY units.
const wheelNotch = 100

var (
	cursorPosition       = ebiten.CursorPosition
	isMouseButtonPressed = ebiten.IsMouseButtonPressed
	wheel                = ebiten.Wheel
	appendTouchIDs       = ebiten.AppendTouchIDs
	touchPosition        = ebiten.TouchPosition
	isKeyJustPressed     = inpututil.IsKeyJustPressed
)

// SetInputForTest replaces the ebiten input functions and returns a function
// restoring the originals.
func SetInputForTest(
	cursor func() (int, int),
	mouse func(ebiten.MouseButton) bool,
	wh func() (float64, float64),
	touches func([]ebiten.TouchID) []ebiten.TouchID,
	touchPos func(ebiten.TouchID) (int, int),
	key func(ebiten.Key) bool,
) func() {
	oldCursor, oldMouse, oldWheel := cursorPosition, isMouseButtonPressed, wheel
	oldTouches, oldTouchPos, oldKey := appendTouchIDs, touchPosition, isKeyJustPressed
	cursorPosition = cursor
	isMouseButtonPressed = mouse
	wheel = wh
	appendTouchIDs = touches
	touchPosition = touchPos
	isKeyJustPressed = key
	return func() {
		cursorPosition, isMouseButtonPressed, wheel = oldCursor, oldMouse, oldWheel
		appendTouchIDs, touchPosition, isKeyJustPressed = oldTouches, oldTouchPos, oldKey
	}
}

// inputPump turns polled ebiten state into gesture events, mirroring the
// pointer and touch event streams a browser would deliver.
type inputPump struct {
	pressed bool
	cursor  railmap.Point
	touches []railmap.Point
	ids     []ebiten.TouchID
}

func (p *inputPump) poll() []railmap.InputEvent {
	var events []railmap.InputEvent

	cx, cy := cursorPosition()
	at := railmap.Point{X: float64(cx), Y: float64(cy)}
	down := isMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case down && !p.pressed:
		events = append(events, railmap.InputEvent{Kind: railmap.PointerDown, X: at.X, Y: at.Y})
	case at != p.cursor:
		events = append(events, railmap.InputEvent{Kind: railmap.PointerMove, X: at.X, Y: at.Y})
	}
	if !down && p.pressed {
		events = append(events, railmap.InputEvent{Kind: railmap.PointerUp, X: at.X, Y: at.Y})
	}
	p.pressed = down
	p.cursor = at

	if _, dy := wheel(); dy != 0 {
		events = append(events, railmap.InputEvent{Kind: railmap.Wheel, DeltaY: -dy * wheelNotch})
	}

	p.ids = appendTouchIDs(p.ids[:0])
	touches := make([]railmap.Point, 0, len(p.ids))
	for _, id := range p.ids {
		x, y := touchPosition(id)
		touches = append(touches, railmap.Point{X: float64(x), Y: float64(y)})
	}
	switch {
	case len(touches) == 0 && len(p.touches) > 0:
		events = append(events, railmap.InputEvent{Kind: railmap.TouchEnd})
	case len(touches) != len(p.touches):
		events = append(events, railmap.InputEvent{Kind: railmap.TouchStart, Touches: touches})
	case len(touches) > 0 && !samePoints(touches, p.touches):
		events = append(events, railmap.InputEvent{Kind: railmap.TouchMove, Touches: touches})
	}
	p.touches = touches

	return events
}

func samePoints(a, b []railmap.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
