package control

import (
	"math"
	"time"
)

const (
	minZoom         = 1.0
	maxZoom         = 3.0
	doubleTapWindow = 300 * time.Millisecond
	doubleTapSlop   = 48.0
	buttonGain      = 2.0
)

// Phase tags a raw pointer or touch sample.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
	PhaseCancel
)

// ParsePhase maps a UI phase name to a Phase.
func ParsePhase(name string) (Phase, bool) {
	switch name {
	case "down":
		return PhaseDown, true
	case "move":
		return PhaseMove, true
	case "up":
		return PhaseUp, true
	case "cancel":
		return PhaseCancel, true
	default:
		return 0, false
	}
}

// PointerKind is the device that produced a sample.
type PointerKind int

const (
	KindMouse PointerKind = iota
	KindTouch
	KindPen
)

// ParsePointerKind maps a DOM pointerType. Unknown types are mice.
func ParsePointerKind(name string) PointerKind {
	switch name {
	case "touch":
		return KindTouch
	case "pen":
		return KindPen
	default:
		return KindMouse
	}
}

// Sample is one raw pointer or touch event in client coordinates.
type Sample struct {
	Phase    Phase
	Kind     PointerKind
	ID       int
	Button   int
	Client   Point
	Movement Point
	// Touches lists every active touch point. On up/cancel it lists the
	// touches that remain.
	Touches []Point
	At      time.Time
}

// TouchMode selects how single touches drive the remote cursor.
type TouchMode int

const (
	// TouchAbsolute teleports the cursor to the touched point.
	TouchAbsolute TouchMode = iota
	// TouchRelative moves the cursor like a trackpad.
	TouchRelative
)

// String returns the UI name of the mode.
func (m TouchMode) String() string {
	if m == TouchRelative {
		return "relative"
	}
	return "absolute"
}

// ParseTouchMode maps a UI mode name. Unknown names select absolute.
func ParseTouchMode(name string) TouchMode {
	if name == "relative" {
		return TouchRelative
	}
	return TouchAbsolute
}

// GestureKind is the active state of the touch state machine.
type GestureKind int

const (
	GestureIdle GestureKind = iota
	GestureSingleTouchPending
	GestureDragging
	GesturePinching
)

// View is the local zoom/pan transform of the video surface.
type View struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

var identityView = View{Scale: 1}

// Outcome is the result of feeding one sample to the disambiguator.
type Outcome struct {
	Pos         Point
	Actions     []MouseAction
	ViewChanged bool
}

type pinchAnchor struct {
	distance  float64
	scale     float64
	center    Point
	translate Point
}

type buttonGesture struct {
	up       MouseFlag
	start    Point
	startPos Point
}

// GestureState classifies touch streams into moves, pinch zoom and double
// taps, and tracks the on-screen mouse button drags.
type GestureState struct {
	mode  TouchMode
	state GestureKind

	start    Point
	last     Point
	startPos Point

	pinch pinchAnchor
	view  View

	lastTapAt time.Time
	lastTap   Point

	button *buttonGesture
}

// NewGestureState returns a ready-to-use gesture tracker.
func NewGestureState(mode TouchMode) *GestureState {
	return &GestureState{mode: mode, view: identityView}
}

// SetMode switches the single-touch sub-mode and drops any in-flight touch.
func (g *GestureState) SetMode(mode TouchMode) {
	g.mode = mode
	g.Reset()
}

// Mode returns the single-touch sub-mode.
func (g *GestureState) Mode() TouchMode { return g.mode }

// State returns the touch state.
func (g *GestureState) State() GestureKind { return g.state }

// View returns the current zoom/pan transform.
func (g *GestureState) View() View { return g.view }

// Reset clears transient touch and button state. The view is kept.
func (g *GestureState) Reset() {
	g.state = GestureIdle
	g.pinch = pinchAnchor{}
	g.button = nil
}

// ResetView restores the identity transform.
func (g *GestureState) ResetView() {
	g.view = identityView
}

// Touch feeds one touch sample. pos is the current normalized cursor position.
func (g *GestureState) Touch(s Sample, rect Rect, pos Point) Outcome {
	out := Outcome{Pos: pos}
	switch s.Phase {
	case PhaseDown:
		if len(s.Touches) >= 2 {
			g.startPinch(s.Touches)
			return out
		}
		if g.state == GesturePinching {
			return out
		}
		out.ViewChanged = g.detectDoubleTap(s)
		g.beginSingle(s, rect, &out)
	case PhaseMove:
		if len(s.Touches) >= 2 {
			if g.state != GesturePinching {
				g.startPinch(s.Touches)
			}
			out.ViewChanged = g.updatePinch(s.Touches, rect)
			return out
		}
		if g.state == GesturePinching {
			g.state = GestureIdle
			return out
		}
		g.moveSingle(s, rect, &out)
	case PhaseUp, PhaseCancel:
		if g.state == GesturePinching && len(s.Touches) >= 2 {
			return out
		}
		g.state = GestureIdle
		g.pinch = pinchAnchor{}
	}
	return out
}

// beginSingle starts a single-touch gesture.
func (g *GestureState) beginSingle(s Sample, rect Rect, out *Outcome) {
	switch g.mode {
	case TouchAbsolute:
		p, ok := FromClient(rect, s.Client)
		if !ok {
			return
		}
		out.Pos = p
		out.Actions = append(out.Actions, MouseAction{X: p.X, Y: p.Y, Flag: FlagMove})
		g.startPos = p
	case TouchRelative:
		if !rect.Contains(s.Client) {
			return
		}
		g.startPos = out.Pos
	}
	g.state = GestureSingleTouchPending
	g.start = s.Client
	g.last = s.Client
}

// moveSingle advances a single-touch gesture.
func (g *GestureState) moveSingle(s Sample, rect Rect, out *Outcome) {
	if g.state != GestureSingleTouchPending && g.state != GestureDragging {
		return
	}
	var (
		p  Point
		ok bool
	)
	if g.mode == TouchAbsolute {
		p, ok = FromClient(rect, s.Client)
	} else {
		p, ok = ApplyDelta(rect, out.Pos, s.Client.X-g.last.X, s.Client.Y-g.last.Y, 1)
	}
	if !ok {
		return
	}
	g.state = GestureDragging
	g.last = s.Client
	out.Pos = p
	out.Actions = append(out.Actions, MouseAction{X: p.X, Y: p.Y, Flag: FlagMove})
}

// detectDoubleTap resets the view on a second tap near the first one.
func (g *GestureState) detectDoubleTap(s Sample) bool {
	if !g.lastTapAt.IsZero() &&
		s.At.Sub(g.lastTapAt) <= doubleTapWindow &&
		distance(s.Client, g.lastTap) <= doubleTapSlop {
		g.lastTapAt = time.Time{}
		g.view = identityView
		return true
	}
	g.lastTapAt = s.At
	g.lastTap = s.Client
	return false
}

// startPinch anchors a pinch on the first two touches.
func (g *GestureState) startPinch(t []Point) {
	g.state = GesturePinching
	g.pinch = pinchAnchor{
		distance:  distance(t[0], t[1]),
		scale:     g.view.Scale,
		center:    midpoint(t[0], t[1]),
		translate: Point{X: g.view.TX, Y: g.view.TY},
	}
}

// updatePinch recomputes the zoom and pan from the current touches.
func (g *GestureState) updatePinch(t []Point, rect Rect) bool {
	scale := g.pinch.scale
	if g.pinch.distance > 0 {
		scale = g.pinch.scale * distance(t[0], t[1]) / g.pinch.distance
	}
	scale = clamp(scale, minZoom, maxZoom)

	c := midpoint(t[0], t[1])
	tx := g.pinch.translate.X + c.X - g.pinch.center.X
	ty := g.pinch.translate.Y + c.Y - g.pinch.center.Y
	if rect.Valid() {
		maxX := math.Max(0, (rect.W*scale-rect.W)/2)
		maxY := math.Max(0, (rect.H*scale-rect.H)/2)
		tx = clamp(tx, -maxX, maxX)
		ty = clamp(ty, -maxY, maxY)
	}
	g.view = View{Scale: scale, TX: tx, TY: ty}
	return true
}

// ButtonDown starts an on-screen button drag and returns the press action.
func (g *GestureState) ButtonDown(button int, client, pos Point) MouseAction {
	g.button = &buttonGesture{up: ButtonFlag(button, false), start: client, startPos: pos}
	return MouseAction{X: pos.X, Y: pos.Y, Flag: ButtonFlag(button, true)}
}

// ButtonMove moves the cursor by twice the finger displacement since the press.
func (g *GestureState) ButtonMove(client Point, rect Rect) (MouseAction, bool) {
	if g.button == nil {
		return MouseAction{}, false
	}
	b := g.button
	p, ok := ApplyDelta(rect, b.startPos, client.X-b.start.X, client.Y-b.start.Y, buttonGain)
	if !ok {
		return MouseAction{}, false
	}
	return MouseAction{X: p.X, Y: p.Y, Flag: FlagMove}, true
}

// ButtonUp ends the button drag and returns the release flag.
func (g *GestureState) ButtonUp() (MouseFlag, bool) {
	if g.button == nil {
		return 0, false
	}
	up := g.button.up
	g.button = nil
	return up, true
}

// distance returns the euclidean distance between two points.
func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// midpoint returns the center between two points.
func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
