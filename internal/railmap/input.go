package railmap

import (
	"math"
	"strings"
)

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	TouchStart
	TouchMove
	TouchEnd
	Wheel
	Resize
)

var eventKindNames = [...]string{
	PointerDown: "pointer_down",
	PointerMove: "pointer_move",
	PointerUp:   "pointer_up",
	TouchStart:  "touch_start",
	TouchMove:   "touch_move",
	TouchEnd:    "touch_end",
	Wheel:       "wheel",
	Resize:      "resize",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// ParseEventKind accepts the names produced by EventKind.String.
func ParseEventKind(s string) (EventKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range eventKindNames {
		if name == s {
			return EventKind(i), true
		}
	}
	return 0, false
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InputEvent is one gesture input in surface pixel coordinates. X/Y are used
// by pointer events, Touches by touch events and DeltaY by Wheel.
type InputEvent struct {
	Kind    EventKind
	X, Y    float64
	Touches []Point
	DeltaY  float64
}

type GestureState int

const (
	Idle GestureState = iota
	Pressed
	Pinching
)

func (g GestureState) String() string {
	switch g {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Pinching:
		return "pinching"
	default:
		return "unknown"
	}
}

type InputState struct {
	Gesture      GestureState
	Pointer      Point
	ClickStart   Point
	PinchDist    float64
	HasPinchDist bool
}

// Effect is what a transition asks of the viewport and renderer.
type Effect struct {
	Pan     bool
	PanX    float64
	PanY    float64
	Zoom    float64
	Redraw  bool
	Click   bool
	ClickAt Point
}

type Sensitivity struct {
	Scroll float64
	Pinch  float64
}

// Transition is the gesture state machine. It has no side effects.
func Transition(s InputState, ev InputEvent, sens Sensitivity) (InputState, Effect) {
	var eff Effect

	switch ev.Kind {
	case PointerDown:
		s = press(s, Point{X: ev.X, Y: ev.Y})

	case PointerMove:
		s, eff = move(s, Point{X: ev.X, Y: ev.Y})

	case PointerUp:
		s.Pointer = Point{X: ev.X, Y: ev.Y}
		s, eff = release(s)

	case TouchStart:
		switch {
		case len(ev.Touches) == 2:
			s.Gesture = Pinching
			s.HasPinchDist = false
		case len(ev.Touches) > 0:
			s = press(s, ev.Touches[0])
		}

	case TouchMove:
		if s.Gesture == Pinching {
			if len(ev.Touches) < 2 {
				break
			}
			a, b := ev.Touches[0], ev.Touches[1]
			dist := math.Hypot(a.X-b.X, a.Y-b.Y)
			if s.HasPinchDist {
				eff.Zoom = (s.PinchDist - dist) * sens.Pinch
				eff.Redraw = true
			}
			s.PinchDist = dist
			s.HasPinchDist = true
			break
		}
		if len(ev.Touches) > 0 {
			s, eff = move(s, ev.Touches[0])
		}

	case TouchEnd:
		s, eff = release(s)

	case Wheel:
		eff.Zoom = ev.DeltaY * sens.Scroll
		eff.Redraw = true

	case Resize:
		eff.Redraw = true
	}

	return s, eff
}

func press(s InputState, at Point) InputState {
	s.Gesture = Pressed
	s.Pointer = at
	s.ClickStart = at
	s.HasPinchDist = false
	return s
}

func move(s InputState, to Point) (InputState, Effect) {
	var eff Effect
	if s.Gesture == Pressed {
		eff.Pan = true
		eff.PanX = to.X - s.Pointer.X
		eff.PanY = to.Y - s.Pointer.Y
		eff.Redraw = true
	}
	s.Pointer = to
	return s, eff
}

func release(s InputState) (InputState, Effect) {
	var eff Effect
	if s.Gesture == Pressed && s.Pointer == s.ClickStart {
		eff.Click = true
		eff.ClickAt = s.Pointer
	}
	s.Gesture = Idle
	s.HasPinchDist = false
	s.PinchDist = 0
	return s, eff
}

// InputController feeds events through Transition and applies the resulting
// pan and zoom to its viewport.
type InputController struct {
	state InputState
	view  *Viewport
	sens  Sensitivity
}

func NewInputController(view *Viewport, sens Sensitivity) *InputController {
	return &InputController{view: view, sens: sens}
}

func (c *InputController) Handle(ev InputEvent) Effect {
	next, eff := Transition(c.state, ev, c.sens)
	c.state = next
	if eff.Pan {
		c.view.Pan(eff.PanX, eff.PanY)
	}
	if eff.Zoom != 0 {
		c.view.Zoom(eff.Zoom)
	}
	return eff
}

func (c *InputController) State() InputState { return c.state }

func (c *InputController) setSensitivity(sens Sensitivity) { c.sens = sens }
