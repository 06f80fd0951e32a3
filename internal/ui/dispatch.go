package ui

import (
	"github.com/frudas24/deskpilot/internal/control"
	"github.com/frudas24/deskpilot/internal/eventloop"
	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/prefs"
	"github.com/rs/zerolog/log"
)

// Sessions is the session surface driven by UI commands.
type Sessions interface {
	Connect(id, password string) error
	Disconnect()
	SelectDisplay(id float64) error
	Announce()
}

// Dispatcher applies UI messages on the loop.
type Dispatcher struct {
	loop    *eventloop.Loop
	input   *control.Virtualizer
	session Sessions
	prefs   *prefs.Store
	sink    notify.Sink
}

// NewDispatcher wires UI messages to input and session. store may be nil.
func NewDispatcher(loop *eventloop.Loop, input *control.Virtualizer, sess Sessions, store *prefs.Store, sink notify.Sink) *Dispatcher {
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Dispatcher{loop: loop, input: input, session: sess, prefs: store, sink: sink}
}

// Handle dispatches one message. It must run on the loop.
func (d *Dispatcher) Handle(msg Message) {
	switch msg.T {
	case "hello":
		d.hello()
	case "caps":
		d.input.SetCapabilities(msg.Hover, msg.Fine)
	case "surface":
		if msg.Rect != nil {
			d.input.SetSurface(*msg.Rect)
		}
	case "touchMode":
		d.setTouchMode(control.ParseTouchMode(msg.Mode))
	case "lock":
		d.input.PointerLockChanged(msg.Locked)
	case "lockError":
		d.input.PointerLockFailed()
	case "pointer":
		d.pointer(msg)
	case "wheel":
		d.input.HandleWheel(control.Point{X: msg.X, Y: msg.Y}, msg.DX, msg.DY, d.loop.Now())
	case "key":
		d.input.HandleKey(control.KeyEvent{
			Code:      msg.Code,
			Down:      msg.Down,
			Repeat:    msg.Repeat,
			TextFocus: msg.TextFocus,
		})
	case "vbutton":
		if phase, ok := control.ParsePhase(msg.Phase); ok {
			d.input.VirtualButton(buttonFor(msg.Control), phase, control.Point{X: msg.X, Y: msg.Y})
		}
	case "vkey":
		if phase, ok := control.ParsePhase(msg.Phase); ok && phase != control.PhaseMove {
			d.input.VirtualKey(msg.Code, phase == control.PhaseDown)
		}
	case "vscroll":
		dir, ok := control.ParseScrollDir(msg.Dir)
		phase, pok := control.ParsePhase(msg.Phase)
		if ok && pok && phase != control.PhaseMove {
			d.input.VirtualScroll(dir, phase == control.PhaseDown)
		}
	case "drag":
		if src, ok := control.ParseDragSource(msg.Source); ok {
			d.input.SetDragging(src, msg.Active)
		}
	case "raw_mouse":
		d.input.EmitMouse(control.Point{X: msg.X, Y: msg.Y}, msg.Flag, control.TruncInt32(msg.Scroll))
	case "audio":
		d.input.EmitAudioCapture(msg.Enabled)
	case "connect":
		if err := d.session.Connect(msg.IDString(), msg.Password); err != nil {
			log.Warn().Err(err).Msg("connect rejected")
			d.sink.Notify(notify.Event{T: notify.TypeError, Text: err.Error()})
		}
	case "disconnect":
		d.session.Disconnect()
	case "display":
		id, ok := msg.IDNumber()
		if !ok {
			log.Debug().Str("id", string(msg.ID)).Msg("display id ignored")
			return
		}
		if err := d.session.SelectDisplay(id); err != nil {
			log.Warn().Err(err).Msg("display select rejected")
		}
	default:
		log.Debug().Str("t", msg.T).Msg("unknown ui message")
	}
}

// pointer converts a UI pointer message into a gesture sample.
func (d *Dispatcher) pointer(msg Message) {
	phase, ok := control.ParsePhase(msg.Phase)
	if !ok {
		return
	}
	id := 0
	if n, ok := msg.IDNumber(); ok {
		id = int(n)
	}
	d.input.HandlePointer(control.Sample{
		Phase:    phase,
		Kind:     control.ParsePointerKind(msg.Kind),
		ID:       id,
		Button:   msg.Button,
		Client:   control.Point{X: msg.X, Y: msg.Y},
		Movement: control.Point{X: msg.MX, Y: msg.MY},
		Touches:  msg.Touches,
		At:       d.loop.Now(),
	})
}

// setTouchMode applies and persists the touch sub-mode.
func (d *Dispatcher) setTouchMode(mode control.TouchMode) {
	d.input.SetTouchMode(mode)
	if d.prefs == nil {
		return
	}
	if err := d.prefs.Update(func(p *prefs.Prefs) { p.TouchMode = mode.String() }); err != nil {
		log.Warn().Err(err).Msg("save touch mode")
	}
}

// hello replays state for a freshly connected page.
func (d *Dispatcher) hello() {
	d.session.Announce()
	if d.prefs == nil {
		return
	}
	p := d.prefs.Get()
	d.sink.Notify(notify.Event{T: notify.TypePrefs, ID: p.TransmissionID, State: d.input.Gestures().Mode().String()})
}
