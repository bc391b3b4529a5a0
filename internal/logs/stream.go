// Package logs holds the append-only log sequence received from the backend
// and broadcasts it to observers.
package logs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charliek/poolwatch/internal/domain"
)

// Stream is an unbounded, insertion-ordered sequence of log entries. Every
// change is pushed to all observers as the full current sequence.
type Stream struct {
	mu        sync.Mutex
	entries   []domain.LogEntry
	lastSeq   uint64
	observers map[string]*observer
	now       func() time.Time
}

// NewStream creates an empty stream. now stamps received entries; nil uses
// the wall clock.
func NewStream(now func() time.Time) *Stream {
	if now == nil {
		now = time.Now
	}
	return &Stream{
		observers: make(map[string]*observer),
		now:       now,
	}
}

// Append adds a line and notifies observers
func (s *Stream) Append(line string) domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeq++
	entry := domain.LogEntry{
		Seq:        s.lastSeq,
		Line:       line,
		ReceivedAt: s.now(),
	}
	s.entries = append(s.entries, entry)
	s.broadcastLocked()

	return entry
}

// Clear drops every entry. Sequence numbers keep counting.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.broadcastLocked()
}

// Entries returns a copy of the current sequence
func (s *Stream) Entries() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Len returns the number of entries
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Observe registers an observer. The channel receives the current sequence
// right away and again after every change. Snapshots are shared between
// observers and must be treated as read-only.
func (s *Stream) Observe() (string, <-chan []domain.LogEntry) {
	o := newObserver(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers[o.id] = o
	o.deliver(s.copyLocked())

	return o.id, o.ch
}

// Unobserve removes an observer and closes its channel
func (s *Stream) Unobserve(id string) {
	s.mu.Lock()
	o, ok := s.observers[id]
	delete(s.observers, id)
	s.mu.Unlock()

	if ok {
		o.close()
	}
}

// Stats returns statistics about the stream
func (s *Stream) Stats() domain.LogStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.LogStats{
		TotalEntries: len(s.entries),
		Observers:    len(s.observers),
		LastSeq:      s.lastSeq,
	}
}

// Close closes every observer channel
func (s *Stream) Close() {
	s.mu.Lock()
	observers := s.observers
	s.observers = make(map[string]*observer)
	s.mu.Unlock()

	for _, o := range observers {
		o.close()
	}
}

func (s *Stream) broadcastLocked() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.copyLocked()
	for _, o := range s.observers {
		o.deliver(snapshot)
	}
}

func (s *Stream) copyLocked() []domain.LogEntry {
	result := make([]domain.LogEntry, len(s.entries))
	copy(result, s.entries)
	return result
}
