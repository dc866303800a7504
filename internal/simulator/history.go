package simulator

import (
	"sync"
	"time"

	"home-energy-dashboard/internal/telemetry"
)

const defaultHistorySize = 5000

// History keeps a bounded in-memory window of generated readings. When the
// buffer is full the oldest readings are dropped.
type History struct {
	mu       sync.RWMutex
	buffer   []telemetry.Reading
	capacity int
}

// NewHistory constructs a history buffer holding at most capacity readings.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &History{
		buffer:   make([]telemetry.Reading, 0, capacity),
		capacity: capacity,
	}
}

// Add appends readings, evicting the oldest entries past capacity.
func (h *History) Add(readings ...telemetry.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, readings...)
	if overflow := len(h.buffer) - h.capacity; overflow > 0 {
		h.buffer = append(h.buffer[:0], h.buffer[overflow:]...)
	}
}

// Len reports the number of buffered readings.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buffer)
}

// RecentWithin returns a copy of the readings newer than now-window.
func (h *History) RecentWithin(now time.Time, window time.Duration) []telemetry.Reading {
	cutoff := now.Add(-window)

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]telemetry.Reading, 0, len(h.buffer))
	for _, r := range h.buffer {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}
