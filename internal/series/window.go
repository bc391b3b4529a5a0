// Package series holds the fixed-capacity sliding window of pool size samples.
package series

import (
	"sync"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// Window is a fixed-size circular buffer of samples. Appending at capacity
// evicts the oldest sample, so label and value always leave together.
type Window struct {
	mu       sync.RWMutex
	samples  []domain.Sample
	head     int // next write position
	count    int // current number of samples
	capacity int // max samples
}

// NewWindow creates a window with the given capacity
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = constants.DefaultWindowCapacity
	}
	return &Window{
		samples:  make([]domain.Sample, capacity),
		capacity: capacity,
	}
}

// Append adds a sample, evicting the oldest one when full
func (w *Window) Append(s domain.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.head] = s
	w.head = (w.head + 1) % w.capacity

	if w.count < w.capacity {
		w.count++
	}
}

// Snapshot returns a copy of the window in arrival order. The copy is never
// shared with the window, so callers may keep or modify it.
func (w *Window) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make(Snapshot, w.count)

	// Oldest sample sits at head once the ring has wrapped
	start := 0
	if w.count == w.capacity {
		start = w.head
	}

	for i := 0; i < w.count; i++ {
		result[i] = w.samples[(start+i)%w.capacity]
	}

	return result
}

// Len returns the current number of samples
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Capacity returns the maximum number of samples
func (w *Window) Capacity() int {
	return w.capacity
}

// Clear removes all samples
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.head = 0
	w.count = 0
	clear(w.samples)
}
