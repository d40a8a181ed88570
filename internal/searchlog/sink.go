package searchlog

import (
	"context"
	"sync"
	"time"
)

// Sink is the local store for entries.
type Sink interface {
	// Save inserts e or replaces the stored entry with the same ID.
	Save(ctx context.Context, e Entry) error
	// Update replaces the stored entry with e's ID and reports whether one
	// existed. It never inserts.
	Update(ctx context.Context, e Entry) (bool, error)
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// Pending returns up to limit undelivered entries, oldest first.
	Pending(ctx context.Context, limit int) ([]Entry, error)
	// Prune deletes entries created before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultMemoryLimit is used when NewMemorySink gets a non-positive limit.
const DefaultMemoryLimit = 100

// MemorySink keeps the most recent entries in memory. Once full, saving a
// new entry drops the oldest one.
type MemorySink struct {
	mu      sync.Mutex
	limit   int
	entries []Entry // oldest first
}

// NewMemorySink returns a MemorySink holding at most limit entries.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemorySink{limit: limit}
}

func (m *MemorySink) Save(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			m.entries[i] = e
			return nil
		}
	}

	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.limit; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

func (m *MemorySink) Update(_ context.Context, e Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			m.entries[i] = e
			return true, nil
		}
	}
	return false, nil
}

func (m *MemorySink) Recent(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MemorySink) Pending(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if len(out) >= limit {
			break
		}
		if !e.Delivered {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemorySink) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var pruned int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return pruned, nil
}

// Len reports the number of stored entries.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
