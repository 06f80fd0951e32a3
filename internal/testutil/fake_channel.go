// Package testutil provides recording fakes for tests.
package testutil

import (
	"encoding/json"
	"sync"

	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/transport"
)

// FakeChannel implements transport.Channel and records sent payloads.
type FakeChannel struct {
	mu     sync.Mutex
	Open   bool
	Closed bool
	Sent   []string
}

// Ensure FakeChannel implements the interface.
var _ transport.Channel = (*FakeChannel)(nil)

// NewOpenChannel returns a channel that accepts sends.
func NewOpenChannel() *FakeChannel {
	return &FakeChannel{Open: true}
}

// Label returns a fixed label.
func (f *FakeChannel) Label() string { return "fake" }

// IsOpen reports whether the channel accepts sends.
func (f *FakeChannel) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Open && !f.Closed
}

// SendText records a payload.
func (f *FakeChannel) SendText(payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, payload)
	return nil
}

// Close marks the channel closed.
func (f *FakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Messages decodes every recorded payload into a generic map.
func (f *FakeChannel) Messages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.Sent))
	for _, s := range f.Sent {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Reset drops recorded payloads.
func (f *FakeChannel) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = nil
}

// RecordingSink implements notify.Sink and records events.
type RecordingSink struct {
	mu     sync.Mutex
	Events []notify.Event
}

// Notify records an event.
func (r *RecordingSink) Notify(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

// OfType returns the recorded events of type t.
func (r *RecordingSink) OfType(t string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, ev := range r.Events {
		if ev.T == t {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recent event of type t.
func (r *RecordingSink) Last(t string) (notify.Event, bool) {
	evs := r.OfType(t)
	if len(evs) == 0 {
		return notify.Event{}, false
	}
	return evs[len(evs)-1], true
}
