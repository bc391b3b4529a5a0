package backendtest

import (
	"fmt"
	"net/http"
	"sync"
)

type sseClient struct {
	ch   chan string
	drop chan struct{}
	once sync.Once
}

func (c *sseClient) close() {
	c.once.Do(func() { close(c.drop) })
}

// sseHub fans published lines out to connected event-stream clients
type sseHub struct {
	mu      sync.Mutex
	clients map[*sseClient]struct{}
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// serve handles GET /logs, writing data lines without a space after the
// colon the way the real backend does
func (h *sseHub) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{ch: make(chan string, 64), drop: make(chan struct{})}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.drop:
			return
		case line := <-client.ch:
			if _, err := fmt.Fprintf(w, "data:%s\n\n", line); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *sseHub) publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.ch <- line:
		default:
		}
	}
}

func (h *sseHub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *sseHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
