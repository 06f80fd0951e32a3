package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = Key{Kind: "test", ID: "a"}

// TestPostRunsInOrder verifies posted work runs in submission order.
func TestPostRunsInOrder(t *testing.T) {
	l := New(clockwork.NewFakeClock())
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Poll()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

// TestPostFromCallbackRunsInSamePoll verifies work posted by a callback runs in the same poll.
func TestPostFromCallbackRunsInSamePoll(t *testing.T) {
	l := New(clockwork.NewFakeClock())
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})
	l.Poll()
	assert.Equal(t, []string{"outer", "inner"}, got)
}

// TestAfterFiresOnceAtDeadline verifies one-shot timers fire exactly at their deadline.
func TestAfterFiresOnceAtDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock)
	fired := 0
	l.After(testKey, 300*time.Millisecond, func() { fired++ })

	clock.Advance(299 * time.Millisecond)
	l.Poll()
	assert.Equal(t, 0, fired)

	clock.Advance(time.Millisecond)
	l.Poll()
	assert.Equal(t, 1, fired)

	clock.Advance(time.Second)
	l.Poll()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, l.Armed())
}

// TestEveryKeepsNominalGrid verifies periodic timers do not drift.
func TestEveryKeepsNominalGrid(t *testing.T) {
	clock := clockwork.NewFakeClock()
	start := clock.Now()
	l := New(clock)
	var at []time.Duration
	l.Every(testKey, 300*time.Millisecond, 100*time.Millisecond, func() {
		at = append(at, l.Now().Sub(start))
	})

	clock.Advance(550 * time.Millisecond)
	l.Poll()
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 400 * time.Millisecond, 500 * time.Millisecond}, at)

	rec, ok := l.Timer(testKey)
	require.True(t, ok)
	assert.Equal(t, start, rec.ArmedAt)
	assert.Equal(t, start.Add(600*time.Millisecond), rec.NextFireAt)
}

// TestArmReplacesStaleRecord verifies arming a key replaces its previous timer.
func TestArmReplacesStaleRecord(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock)
	var got []string
	l.After(testKey, 100*time.Millisecond, func() { got = append(got, "stale") })
	l.After(testKey, 100*time.Millisecond, func() { got = append(got, "fresh") })
	assert.Equal(t, 1, l.Armed())

	clock.Advance(100 * time.Millisecond)
	l.Poll()
	assert.Equal(t, []string{"fresh"}, got)
}

// TestCancelKindOnlyTouchesKind verifies cancelling a kind leaves other timers armed.
func TestCancelKindOnlyTouchesKind(t *testing.T) {
	l := New(clockwork.NewFakeClock())
	noop := func() {}
	l.After(Key{Kind: "repeat", ID: "a"}, time.Second, noop)
	l.After(Key{Kind: "repeat", ID: "b"}, time.Second, noop)
	l.After(Key{Kind: "heartbeat"}, time.Second, noop)

	assert.Equal(t, 2, l.CancelKind("repeat"))
	assert.Equal(t, 1, l.Armed())
	assert.False(t, l.Cancel(Key{Kind: "repeat", ID: "a"}))
	assert.True(t, l.Cancel(Key{Kind: "heartbeat"}))
}

// TestChainedTimerUsesFireTime verifies timers armed from a callback measure from the fire time.
func TestChainedTimerUsesFireTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	start := clock.Now()
	l := New(clock)
	var releasedAt time.Duration
	l.After(testKey, 300*time.Millisecond, func() {
		l.After(Key{Kind: "test", ID: "release"}, 30*time.Millisecond, func() {
			releasedAt = l.Now().Sub(start)
		})
	})

	clock.Advance(time.Second)
	l.Poll()
	assert.Equal(t, 330*time.Millisecond, releasedAt)
}

// TestRunStopsOnCancel verifies Run returns when its context ends.
func TestRunStopsOnCancel(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}
