package control

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/frudas24/deskpilot/internal/eventloop"
	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/transport"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	wheelInterval       = 50 * time.Millisecond
	lockLostToastTime   = 3000 * time.Millisecond
	lockFailedToastTime = 2500 * time.Millisecond
)

// ErrInvalidDisplayID is returned for display ids that are not finite.
var ErrInvalidDisplayID = errors.New("display id must be a finite integer")

// PointerMode is the regime used to turn pointer samples into positions.
type PointerMode int

const (
	ModeLocked PointerMode = iota
	ModeUnlockedDesktop
	ModeTouchAbsolute
	ModeTouchRelative
)

// String returns a readable mode name.
func (m PointerMode) String() string {
	switch m {
	case ModeLocked:
		return "locked"
	case ModeUnlockedDesktop:
		return "unlockedDesktop"
	case ModeTouchAbsolute:
		return "touchAbsolute"
	default:
		return "touchRelative"
	}
}

// DragSource names a piece of local chrome that can be repositioned.
type DragSource int

const (
	DragPanel DragSource = iota
	DragVirtualMouse
	DragVirtualKeyboard
	dragSources
)

// ParseDragSource maps a UI drag source name.
func ParseDragSource(name string) (DragSource, bool) {
	switch name {
	case "panel":
		return DragPanel, true
	case "virtualMouse":
		return DragVirtualMouse, true
	case "virtualKeyboard":
		return DragVirtualKeyboard, true
	default:
		return 0, false
	}
}

// KeyEvent is a physical key transition reported by the UI.
type KeyEvent struct {
	Code      uint32
	Down      bool
	Repeat    bool
	TextFocus bool
}

// Virtualizer owns the pointer mode, the normalized cursor and the gesture
// state, and writes encoded actions through the shared channel handle.
// Every method must run on the event loop.
type Virtualizer struct {
	loop     *eventloop.Loop
	channel  *transport.Handle
	sink     notify.Sink
	messages notify.Messages

	desktop bool
	locked  bool
	rect    Rect
	pos     Point
	pressed bool

	dragging [dragSources]bool
	wheel    *rate.Limiter

	gestures *GestureState
	repeater *Repeater
}

// NewVirtualizer builds a virtualizer writing to channel.
func NewVirtualizer(loop *eventloop.Loop, channel *transport.Handle, sink notify.Sink, messages notify.Messages) *Virtualizer {
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Virtualizer{
		loop:     loop,
		channel:  channel,
		sink:     sink,
		messages: messages,
		desktop:  true,
		pos:      Point{X: 0.5, Y: 0.5},
		wheel:    rate.NewLimiter(rate.Every(wheelInterval), 1),
		gestures: NewGestureState(TouchAbsolute),
		repeater: NewRepeater(loop),
	}
}

// Mode returns the active pointer mode.
func (v *Virtualizer) Mode() PointerMode {
	switch {
	case v.locked:
		return ModeLocked
	case v.desktop:
		return ModeUnlockedDesktop
	case v.gestures.Mode() == TouchRelative:
		return ModeTouchRelative
	default:
		return ModeTouchAbsolute
	}
}

// Position returns the normalized cursor position.
func (v *Virtualizer) Position() Point { return v.pos }

// Gestures exposes the touch state machine.
func (v *Virtualizer) Gestures() *GestureState { return v.gestures }

// Repeater exposes the long-press repeater.
func (v *Virtualizer) Repeater() *Repeater { return v.repeater }

// SetCapabilities applies the device probe: hover with a fine pointer is a desktop.
func (v *Virtualizer) SetCapabilities(hover, fine bool) {
	v.desktop = hover && fine
	log.Debug().Bool("desktop", v.desktop).Msg("input capabilities")
}

// SetTouchMode selects absolute or relative touch control.
func (v *Virtualizer) SetTouchMode(mode TouchMode) {
	v.gestures.SetMode(mode)
}

// SetSurface records the video surface rectangle in client coordinates.
func (v *Virtualizer) SetSurface(r Rect) {
	v.rect = Normalize(r)
}

// SetDragging raises or clears a drag-suppression flag.
func (v *Virtualizer) SetDragging(src DragSource, active bool) {
	if src >= 0 && src < dragSources {
		v.dragging[src] = active
	}
}

// Dragging reports whether any local chrome is being repositioned.
func (v *Virtualizer) Dragging() bool {
	for _, d := range v.dragging {
		if d {
			return true
		}
	}
	return false
}

// PointerLockChanged applies a pointer lock transition reported by the UI.
func (v *Virtualizer) PointerLockChanged(locked bool) {
	was := v.locked
	v.locked = locked
	if was && !locked {
		v.Reset()
		v.sink.Notify(notify.Toast(v.messages.PointerLockLost, lockLostToastTime))
	}
}

// PointerLockFailed surfaces a lock request failure.
func (v *Virtualizer) PointerLockFailed() {
	v.sink.Notify(notify.Toast(v.messages.PointerLockFailed, lockFailedToastTime))
}

// Reset clears timers and transient gesture state.
func (v *Virtualizer) Reset() {
	v.repeater.StopAll()
	v.gestures.Reset()
	v.pressed = false
}

// HandlePointer routes one pointer or touch sample.
func (v *Virtualizer) HandlePointer(s Sample) {
	if s.Kind == KindTouch && !v.desktop {
		v.handleTouch(s)
		return
	}
	v.handleDesktop(s)
}

// handleTouch feeds the gesture state machine and emits its actions.
func (v *Virtualizer) handleTouch(s Sample) {
	out := v.gestures.Touch(s, v.rect, v.pos)
	v.pos = out.Pos
	for _, a := range out.Actions {
		v.emit(a)
	}
	if out.ViewChanged {
		view := v.gestures.View()
		v.sink.Notify(notify.Event{T: notify.TypeView, Scale: view.Scale, TX: view.TX, TY: view.TY})
	}
}

// handleDesktop applies mouse semantics in locked or unlocked mode.
func (v *Virtualizer) handleDesktop(s Sample) {
	switch s.Phase {
	case PhaseDown:
		if !v.locked {
			p, ok := FromClient(v.rect, s.Client)
			if !ok {
				return
			}
			v.pos = p
			v.sink.Notify(notify.Event{T: notify.TypeRequestLock})
		}
		v.pressed = true
		v.EmitMouse(v.pos, ButtonFlag(s.Button, true), 0)
	case PhaseMove:
		if v.locked {
			p, ok := ApplyDelta(v.rect, v.pos, s.Movement.X, s.Movement.Y, 1)
			if !ok {
				return
			}
			v.pos = p
			v.EmitMouse(v.pos, FlagMove, 0)
			return
		}
		if !v.pressed {
			return
		}
		p, ok := FromClient(v.rect, s.Client)
		if !ok {
			return
		}
		v.pos = p
		v.EmitMouse(v.pos, FlagMove, 0)
	case PhaseUp:
		if !v.locked && !v.pressed {
			return
		}
		v.pressed = false
		v.EmitMouse(v.pos, ButtonFlag(s.Button, false), 0)
	case PhaseCancel:
		v.pressed = false
	}
}

// HandleWheel emits at most one wheel action per wheelInterval.
func (v *Virtualizer) HandleWheel(client Point, dx, dy float64, at time.Time) {
	if !v.rect.Valid() {
		return
	}
	coords := v.pos
	if !v.locked {
		p, ok := FromClient(v.rect, client)
		if !ok {
			return
		}
		coords = p
	}
	if !v.wheel.AllowN(at, 1) {
		return
	}
	flag := FlagWheelVertical
	if dy == 0 {
		flag = FlagWheelHorizontal
	}
	delta := dy
	if delta == 0 {
		delta = dx
	}
	v.EmitMouse(coords, flag, TruncInt32(delta))
}

// HandleKey forwards a physical key transition.
func (v *Virtualizer) HandleKey(ev KeyEvent) {
	v.EmitKeyboard(ev)
}

// VirtualButton drives the on-screen mouse buttons (0 left, 2 right).
func (v *Virtualizer) VirtualButton(button int, phase Phase, client Point) {
	switch phase {
	case PhaseDown:
		v.emit(v.gestures.ButtonDown(button, client, v.pos))
	case PhaseMove:
		a, ok := v.gestures.ButtonMove(client, v.rect)
		if !ok {
			return
		}
		v.pos = Point{X: a.X, Y: a.Y}
		v.emit(a)
	case PhaseUp, PhaseCancel:
		up, ok := v.gestures.ButtonUp()
		if !ok {
			return
		}
		v.EmitMouse(v.pos, up, 0)
	}
}

// VirtualKey drives an on-screen key with long-press repeat.
func (v *Virtualizer) VirtualKey(code uint32, pressed bool) {
	id := "key:" + strconv.FormatUint(uint64(code), 10)
	if !pressed {
		v.repeater.Stop(id)
		v.emitKey(code, false)
		return
	}
	if !v.channel.IsOpen() {
		return
	}
	v.repeater.Stop(id)
	v.emitKey(code, true)
	v.repeater.Start(id, func() {
		v.emitKey(code, true)
		v.repeater.Release(id, func() { v.emitKey(code, false) })
	})
}

// ScrollDir is the direction of an on-screen scroll button.
type ScrollDir int

const (
	ScrollUp ScrollDir = iota
	ScrollDown
)

// ParseScrollDir maps a UI direction name.
func ParseScrollDir(name string) (ScrollDir, bool) {
	switch name {
	case "up":
		return ScrollUp, true
	case "down":
		return ScrollDown, true
	default:
		return 0, false
	}
}

// VirtualScroll drives an on-screen scroll button with long-press repeat.
// Up ticks the wheel by -1, down by +1.
func (v *Virtualizer) VirtualScroll(dir ScrollDir, pressed bool) {
	id, tick := "scroll:down", int32(1)
	if dir == ScrollUp {
		id, tick = "scroll:up", -1
	}
	if !pressed {
		v.repeater.Stop(id)
		return
	}
	if !v.channel.IsOpen() {
		return
	}
	v.repeater.Stop(id)
	fire := func() { v.EmitMouse(v.pos, FlagWheelVertical, tick) }
	fire()
	v.repeater.Start(id, fire)
}

// EmitMouse sends a mouse action unless local chrome is being dragged.
func (v *Virtualizer) EmitMouse(p Point, flag MouseFlag, scroll int32) {
	if v.Dragging() {
		return
	}
	v.send(MouseAction{X: p.X, Y: p.Y, Flag: flag, Scroll: scroll})
}

// EmitKeyboard sends a key transition. Keys typed into local text fields and
// auto-repeated key downs are dropped.
func (v *Virtualizer) EmitKeyboard(ev KeyEvent) {
	if ev.TextFocus {
		return
	}
	if ev.Down && ev.Repeat {
		return
	}
	v.emitKey(ev.Code, ev.Down)
}

// EmitAudioCapture toggles host audio capture.
func (v *Virtualizer) EmitAudioCapture(enabled bool) {
	v.send(AudioCaptureAction{Enabled: enabled})
}

// EmitDisplaySelect asks the host to stream display id. Fractional ids are truncated.
func (v *Virtualizer) EmitDisplaySelect(id float64) error {
	if math.IsNaN(id) || math.IsInf(id, 0) {
		log.Warn().Float64("id", id).Msg("display select rejected")
		return ErrInvalidDisplayID
	}
	v.send(DisplaySelectAction{DisplayID: TruncInt32(id)})
	return nil
}

// emit sends a gesture-produced mouse action.
func (v *Virtualizer) emit(a MouseAction) {
	v.EmitMouse(Point{X: a.X, Y: a.Y}, a.Flag, a.Scroll)
}

// emitKey sends a key action.
func (v *Virtualizer) emitKey(code uint32, down bool) {
	v.send(KeyboardAction{KeyCode: code, Down: down})
}

// send encodes and writes an action if the channel is open.
func (v *Virtualizer) send(a Action) {
	if !v.channel.IsOpen() {
		return
	}
	payload, err := Encode(a)
	if err != nil {
		log.Error().Err(err).Msg("encode action")
		return
	}
	if err := v.channel.Send(payload); err != nil {
		log.Debug().Err(err).Int("type", int(a.ActionType())).Msg("send action")
	}
}
