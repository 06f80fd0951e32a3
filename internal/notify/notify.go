// Package notify describes the signals the client surfaces to its local UI.
package notify

import "time"

// Event types pushed to the UI.
const (
	TypeStatus      = "status"
	TypeOverlay     = "overlay"
	TypeError       = "error"
	TypeToast       = "toast"
	TypeTrack       = "track"
	TypeDisplay     = "display"
	TypeChannel     = "channel"
	TypeRequestLock = "requestLock"
	TypeView        = "view"
	TypeSession     = "session"
	TypePrefs       = "prefs"
)

// Event is a single UI-facing signal.
type Event struct {
	T       string  `json:"t"`
	Text    string  `json:"text,omitempty"`
	State   string  `json:"state,omitempty"`
	Ms      int64   `json:"ms,omitempty"`
	Index   int     `json:"index"`
	ID      string  `json:"id,omitempty"`
	Visible bool    `json:"visible,omitempty"`
	Open    bool    `json:"open,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
	TX      float64 `json:"tx,omitempty"`
	TY      float64 `json:"ty,omitempty"`
}

// Sink receives UI events. Implementations must not block the caller.
type Sink interface {
	Notify(Event)
}

// Discard drops every event.
type Discard struct{}

// Notify implements Sink.
func (Discard) Notify(Event) {}

// Status builds a status line event.
func Status(state, text string) Event {
	return Event{T: TypeStatus, State: state, Text: text}
}

// Toast builds a transient message shown for d.
func Toast(text string, d time.Duration) Event {
	return Event{T: TypeToast, Text: text, Ms: d.Milliseconds()}
}

// Overlay shows or hides the connection overlay.
func Overlay(visible bool) Event {
	return Event{T: TypeOverlay, Visible: visible}
}
