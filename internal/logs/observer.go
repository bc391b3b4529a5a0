package logs

import (
	"sync/atomic"

	"github.com/charliek/poolwatch/internal/domain"
)

// observer holds the latest undelivered snapshot for one consumer. The
// channel has room for a single snapshot; a newer one replaces it, so a slow
// consumer skips intermediate states but always ends on the current one.
type observer struct {
	id     string
	ch     chan []domain.LogEntry
	closed atomic.Bool
}

func newObserver(id string) *observer {
	return &observer{
		id: id,
		ch: make(chan []domain.LogEntry, 1),
	}
}

// deliver replaces any pending snapshot with entries. Callers serialize
// deliveries, so the send after the drain never blocks.
func (o *observer) deliver(entries []domain.LogEntry) {
	if o.closed.Load() {
		return
	}

	select {
	case <-o.ch:
	default:
	}

	select {
	case o.ch <- entries:
	default:
	}
}

func (o *observer) close() {
	if o.closed.CompareAndSwap(false, true) {
		close(o.ch)
	}
}
