// Package eventloop runs every client state transition on one goroutine.
package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Loop is a single-threaded dispatcher. Work posted from any goroutine runs
// in FIFO order on the goroutine driving Run (or Poll in tests), and timers
// from the arena fire on that same goroutine.
type Loop struct {
	clock clockwork.Clock

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	timers map[Key]*record
	seq    uint64
	firing time.Time
}

// New returns a loop driven by clock. A nil clock uses the real clock.
func New(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock:  clock,
		wake:   make(chan struct{}, 1),
		timers: make(map[Key]*record),
	}
}

// Clock returns the clock backing the loop.
func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

// Now returns the loop time. While a timer callback runs it is the timer's
// scheduled fire time, so chained timers stay on their nominal grid.
func (l *Loop) Now() time.Time {
	if !l.firing.IsZero() {
		return l.firing
	}
	return l.clock.Now()
}

// Post enqueues fn. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Poll runs queued work and every timer due at the current clock time,
// repeating until nothing is left to do.
func (l *Loop) Poll() {
	for {
		ran := l.drain()
		fired := l.fireDue(l.clock.Now())
		if ran == 0 && fired == 0 {
			return
		}
	}
}

// Run drives the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Poll()

		var (
			timer  clockwork.Timer
			timerC <-chan time.Time
		)
		if next, ok := l.nextDeadline(); ok {
			timer = l.clock.NewTimer(next.Sub(l.clock.Now()))
			timerC = timer.Chan()
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-l.wake:
		case <-timerC:
		}
		stopTimer(timer)
	}
}

// drain runs the work queued so far and reports how many items ran.
func (l *Loop) drain() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// stopTimer stops a timer if one was created.
func stopTimer(t clockwork.Timer) {
	if t != nil {
		t.Stop()
	}
}
