package history

import "multibagger/models"

// Ring is a fixed-capacity sequence ordered newest first. Pushing onto a full
// ring evicts the oldest entry.
type Ring struct {
	buf  []models.HistoryEntry
	head int
	size int
}

// NewRing creates a ring holding at most capacity entries
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]models.HistoryEntry, capacity)}
}

// Push adds e as the newest entry and reports whether an entry was evicted
func (r *Ring) Push(e models.HistoryEntry) (evicted bool) {
	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = e
	if r.size < len(r.buf) {
		r.size++
		return false
	}
	return true
}

// Items returns the entries newest first in a fresh slice
func (r *Ring) Items() []models.HistoryEntry {
	out := make([]models.HistoryEntry, r.size)
	for i := range r.size {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Reset empties the ring
func (r *Ring) Reset() {
	clear(r.buf)
	r.head, r.size = 0, 0
}

func (r *Ring) Len() int { return r.size }

func (r *Ring) Cap() int { return len(r.buf) }
