// Package display tracks remote video feeds and which one is shown.
package display

import "sync"

// Track is a remote video feed.
type Track interface {
	ID() string
}

// Entry describes a registered track.
type Entry struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// Registry assigns sequential indexes to tracks in arrival order. Tracks stay
// registered until Reset; selecting another index never stops a track.
type Registry struct {
	mu     sync.RWMutex
	tracks map[int]Track
	next   int
	active int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tracks: make(map[int]Track), active: -1}
}

// Add registers t under the next index. The first track becomes active.
func (r *Registry) Add(t Track) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.next
	r.next++
	r.tracks[idx] = t
	if r.active < 0 {
		r.active = idx
	}
	return idx
}

// Get returns the track registered under idx.
func (r *Registry) Get(idx int) (Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tracks[idx]
	return t, ok
}

// Select makes idx the active track. Unknown indexes leave the selection as is.
func (r *Registry) Select(idx int) (Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[idx]
	if !ok {
		return nil, false
	}
	r.active = idx
	return t, true
}

// Active returns the active index and track.
func (r *Registry) Active() (int, Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active < 0 {
		return -1, nil, false
	}
	return r.active, r.tracks[r.active], true
}

// IsActive reports whether t is the active track.
func (r *Registry) IsActive(t Track) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active >= 0 && r.tracks[r.active] == t
}

// Len returns the number of registered tracks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// Entries lists tracks by index.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.tracks))
	for i := 0; i < r.next; i++ {
		t, ok := r.tracks[i]
		if !ok {
			continue
		}
		out = append(out, Entry{Index: i, ID: t.ID(), Active: i == r.active})
	}
	return out
}

// Reset forgets every track and restarts indexing at 0.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = make(map[int]Track)
	r.next = 0
	r.active = -1
}
