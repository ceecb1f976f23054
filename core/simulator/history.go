package simulator

import (
	"sync"

	"github.com/kilianp07/battery-health/core/model"
)

// DefaultHistoryCapacity is the number of readings kept in memory.
const DefaultHistoryCapacity = 1000

// History is a fixed-capacity FIFO ring buffer of readings. When full, adding
// a reading evicts the oldest one.
type History struct {
	mu   sync.RWMutex
	buf  []model.Reading
	head int // index of the oldest reading
	size int
}

// NewHistory creates an empty history holding at most capacity readings.
// A non-positive capacity falls back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]model.Reading, capacity)}
}

// Add appends r, evicting the oldest reading once the buffer is full.
func (h *History) Add(r model.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := len(h.buf)
	if h.size < c {
		h.buf[(h.head+h.size)%c] = r
		h.size++
		return
	}
	h.buf[h.head] = r
	h.head = (h.head + 1) % c
}

// Len returns the number of stored readings.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the buffer capacity.
func (h *History) Cap() int { return len(h.buf) }

// Snapshot returns a copy of all readings, oldest first.
func (h *History) Snapshot() []model.Reading {
	return h.Recent(0)
}

// Recent returns a copy of the n most recent readings, oldest first. A
// non-positive n or one larger than Len returns everything.
func (h *History) Recent(n int) []model.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]model.Reading, n)
	c := len(h.buf)
	start := h.head + h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(start+i)%c]
	}
	return out
}
