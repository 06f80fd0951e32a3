package control

import (
	"time"

	"github.com/frudas24/deskpilot/internal/eventloop"
)

const (
	longPressDelay  = 300 * time.Millisecond
	repeatInterval  = 100 * time.Millisecond
	keyReleaseDelay = 30 * time.Millisecond
)

const (
	kindRepeat  eventloop.Kind = "repeat"
	kindRelease eventloop.Kind = "repeat-release"
)

// Repeater re-emits a held control's action. Each control id owns one slot
// in the loop's timer arena, so a new press always replaces a stale one.
type Repeater struct {
	loop *eventloop.Loop
}

// NewRepeater returns a repeater scheduling on loop.
func NewRepeater(loop *eventloop.Loop) *Repeater {
	return &Repeater{loop: loop}
}

// Start arms the long-press timer for id. After longPressDelay it switches to
// repeating fire every repeatInterval.
func (r *Repeater) Start(id string, fire func()) {
	r.Stop(id)
	key := eventloop.Key{Kind: kindRepeat, ID: id}
	r.loop.After(key, longPressDelay, func() {
		r.loop.Every(key, repeatInterval, repeatInterval, fire)
	})
}

// Release schedules the key-up half of a repeated key press.
func (r *Repeater) Release(id string, up func()) {
	r.loop.After(eventloop.Key{Kind: kindRelease, ID: id}, keyReleaseDelay, up)
}

// Stop clears both timers of id.
func (r *Repeater) Stop(id string) {
	r.loop.Cancel(eventloop.Key{Kind: kindRepeat, ID: id})
	r.loop.Cancel(eventloop.Key{Kind: kindRelease, ID: id})
}

// StopAll clears every repeat timer.
func (r *Repeater) StopAll() {
	r.loop.CancelKind(kindRepeat)
	r.loop.CancelKind(kindRelease)
}

// Active reports whether id is held.
func (r *Repeater) Active(id string) bool {
	_, ok := r.loop.Timer(eventloop.Key{Kind: kindRepeat, ID: id})
	return ok
}
