package testutil

import (
	"sync"

	"github.com/frudas24/deskpilot/internal/signaling"
)

// FakeLink records signaling messages instead of sending them.
type FakeLink struct {
	mu     sync.Mutex
	Open   bool
	Closed bool
	Sent   []signaling.Message
}

// NewOpenLink returns a link that accepts sends.
func NewOpenLink() *FakeLink {
	return &FakeLink{Open: true}
}

// Send records msg.
func (f *FakeLink) Send(msg signaling.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Open || f.Closed {
		return signaling.ErrLinkClosed
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

// IsOpen reports whether the link accepts sends.
func (f *FakeLink) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Open && !f.Closed
}

// Close marks the link closed.
func (f *FakeLink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// OfType returns the recorded messages of type t.
func (f *FakeLink) OfType(t string) []signaling.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []signaling.Message
	for _, m := range f.Sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}
