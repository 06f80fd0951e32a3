package eventloop

import "time"

// Kind classifies timer records.
type Kind string

// Key identifies one timer slot in the arena. At most one record exists per
// key; arming an occupied key replaces the previous record.
type Key struct {
	Kind Kind
	ID   string
}

// Record is a read-only view of an armed timer.
type Record struct {
	Key        Key
	ArmedAt    time.Time
	NextFireAt time.Time
	Period     time.Duration
}

type record struct {
	Record
	seq uint64
	fn  func()
}

// After arms a one-shot timer firing d after the loop time.
func (l *Loop) After(key Key, d time.Duration, fn func()) {
	l.arm(key, d, 0, fn)
}

// Every arms a repeating timer: first fire after first, then every period.
func (l *Loop) Every(key Key, first, period time.Duration, fn func()) {
	if period <= 0 {
		l.arm(key, first, 0, fn)
		return
	}
	l.arm(key, first, period, fn)
}

// Cancel disarms key and reports whether a record existed.
func (l *Loop) Cancel(key Key) bool {
	if _, ok := l.timers[key]; !ok {
		return false
	}
	delete(l.timers, key)
	return true
}

// CancelKind disarms every record of kind and returns how many were removed.
func (l *Loop) CancelKind(kind Kind) int {
	n := 0
	for key := range l.timers {
		if key.Kind == kind {
			delete(l.timers, key)
			n++
		}
	}
	return n
}

// Timer returns the record armed under key.
func (l *Loop) Timer(key Key) (Record, bool) {
	rec, ok := l.timers[key]
	if !ok {
		return Record{}, false
	}
	return rec.Record, true
}

// Armed reports how many timer records are live.
func (l *Loop) Armed() int {
	return len(l.timers)
}

// arm stores a record, replacing any stale one under the same key.
func (l *Loop) arm(key Key, d, period time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	now := l.Now()
	l.seq++
	l.timers[key] = &record{
		Record: Record{
			Key:        key,
			ArmedAt:    now,
			NextFireAt: now.Add(d),
			Period:     period,
		},
		seq: l.seq,
		fn:  fn,
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// fireDue runs every record due at or before now in deadline order.
func (l *Loop) fireDue(now time.Time) int {
	fired := 0
	for {
		rec := l.earliest()
		if rec == nil || rec.NextFireAt.After(now) {
			return fired
		}
		at := rec.NextFireAt
		if rec.Period > 0 {
			rec.NextFireAt = at.Add(rec.Period)
		} else {
			delete(l.timers, rec.Key)
		}
		l.firing = at
		rec.fn()
		l.firing = time.Time{}
		fired++
	}
}

// earliest returns the record with the smallest deadline, ties broken by arm order.
func (l *Loop) earliest() *record {
	var best *record
	for _, rec := range l.timers {
		if best == nil || rec.NextFireAt.Before(best.NextFireAt) ||
			(rec.NextFireAt.Equal(best.NextFireAt) && rec.seq < best.seq) {
			best = rec
		}
	}
	return best
}

// nextDeadline returns the earliest armed deadline.
func (l *Loop) nextDeadline() (time.Time, bool) {
	rec := l.earliest()
	if rec == nil {
		return time.Time{}, false
	}
	return rec.NextFireAt, true
}
