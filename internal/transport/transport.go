// Package transport defines the session channel carrying encoded input actions.
package transport

import "errors"

// ErrChannelClosed is returned when sending on a channel that is not open.
var ErrChannelClosed = errors.New("session channel not open")

// Channel is an ordered, reliable channel to the remote host.
type Channel interface {
	Label() string
	IsOpen() bool
	SendText(payload string) error
	Close() error
}

// Handle is the shared reference to the current session channel. The owner
// (the session) swaps channels with Set and Clear; users only call IsOpen and
// Send. A Handle is not safe for concurrent use and lives on the event loop.
type Handle struct {
	ch Channel
}

// Set installs ch as the current channel, returning the one it replaced.
func (h *Handle) Set(ch Channel) Channel {
	prev := h.ch
	h.ch = ch
	return prev
}

// Clear detaches and closes the current channel.
func (h *Handle) Clear() {
	if h.ch == nil {
		return
	}
	_ = h.ch.Close()
	h.ch = nil
}

// Current returns the installed channel, if any.
func (h *Handle) Current() Channel {
	return h.ch
}

// IsOpen reports whether a channel is installed and open.
func (h *Handle) IsOpen() bool {
	return h != nil && h.ch != nil && h.ch.IsOpen()
}

// Send writes payload on the current channel.
func (h *Handle) Send(payload []byte) error {
	if !h.IsOpen() {
		return ErrChannelClosed
	}
	return h.ch.SendText(string(payload))
}
