// Package dedup holds the per-entity rolling window of seen article keys.
package dedup

import (
	"sync"
	"time"

	"MentionMonitor/internal/canonical"
	"MentionMonitor/internal/domain"
)

// DefaultRetention is the rolling window length.
const DefaultRetention = 7 * 24 * time.Hour

// Index is scoped to one monitoring cycle and rebuilt from history at cycle start.
// Different entities never share a lock.
type Index struct {
	retention time.Duration
	now       func() time.Time

	mu       sync.Mutex
	entities map[string]*entityWindow
}

type entityWindow struct {
	mu   sync.Mutex
	keys map[domain.DedupKey]time.Time
}

// Option customizes an Index.
type Option func(*Index)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(ix *Index) {
		if now != nil {
			ix.now = now
		}
	}
}

// NewIndex builds an empty index; a non-positive retention uses DefaultRetention.
func NewIndex(retention time.Duration, opts ...Option) *Index {
	if retention <= 0 {
		retention = DefaultRetention
	}
	ix := &Index{
		retention: retention,
		now:       time.Now,
		entities:  map[string]*entityWindow{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Index) window(entityID string) *entityWindow {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	w, ok := ix.entities[entityID]
	if !ok {
		w = &entityWindow{keys: map[domain.DedupKey]time.Time{}}
		ix.entities[entityID] = w
	}
	return w
}

// IsDuplicate reports whether any key of the candidate is already in the window.
func (ix *Index) IsDuplicate(entityID string, c domain.NormalizedCandidate) bool {
	w := ix.window(entityID)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.containsAny(c.Keys, ix.cutoff())
}

// Record idempotently inserts every key of the candidate.
func (ix *Index) Record(entityID string, c domain.NormalizedCandidate) {
	w := ix.window(entityID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.insert(c.Keys, ix.now())
}

// CheckAndRecord atomically checks for a duplicate and records the candidate
// when it is new. It returns true for duplicates.
func (ix *Index) CheckAndRecord(entityID string, c domain.NormalizedCandidate) bool {
	w := ix.window(entityID)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.containsAny(c.Keys, ix.cutoff()) {
		return true
	}
	w.insert(c.Keys, ix.now())
	return false
}

// Seed loads persisted history for an entity. Records older than the window are skipped.
func (ix *Index) Seed(entityID string, history []domain.HistoryRecord) int {
	w := ix.window(entityID)
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := ix.cutoff()
	seeded := 0
	for _, rec := range history {
		seenAt := rec.SeenAt
		if seenAt.IsZero() {
			seenAt = ix.now()
		}
		if seenAt.Before(cutoff) {
			continue
		}
		w.insert(canonical.Keys(rec), seenAt)
		seeded++
	}
	return seeded
}

// Prune drops keys that fell out of the window and returns how many were removed.
func (ix *Index) Prune() int {
	ix.mu.Lock()
	windows := make([]*entityWindow, 0, len(ix.entities))
	for _, w := range ix.entities {
		windows = append(windows, w)
	}
	ix.mu.Unlock()

	cutoff := ix.cutoff()
	removed := 0
	for _, w := range windows {
		w.mu.Lock()
		for key, seen := range w.keys {
			if seen.Before(cutoff) {
				delete(w.keys, key)
				removed++
			}
		}
		w.mu.Unlock()
	}
	return removed
}

// Len returns the number of live keys held for an entity.
func (ix *Index) Len(entityID string) int {
	w := ix.window(entityID)
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys)
}

func (ix *Index) cutoff() time.Time {
	return ix.now().Add(-ix.retention)
}

func (w *entityWindow) containsAny(keys []domain.DedupKey, cutoff time.Time) bool {
	for _, key := range keys {
		if seen, ok := w.keys[key]; ok && !seen.Before(cutoff) {
			return true
		}
	}
	return false
}

func (w *entityWindow) insert(keys []domain.DedupKey, at time.Time) {
	for _, key := range keys {
		if prev, ok := w.keys[key]; ok && prev.After(at) {
			continue
		}
		w.keys[key] = at
	}
}
