package backendtest

import (
	"fmt"
	"net/http"
	"strconv"
)

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// intParams reads required integer query parameters, answering 400 like the
// real backend when one is missing or malformed
func intParams(w http.ResponseWriter, r *http.Request, names ...string) ([]int, bool) {
	values := make([]int, len(names))
	for i, name := range names {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			writeText(w, http.StatusBadRequest, "Missing required parameter: "+name)
			return nil, false
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("Invalid value for parameter %s: %s", name, raw))
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

var poolParams = []string{"maxTicketCapacity", "totalTickets", "ticketReleaseRate", "customerTicketRetrievalRate"}

func (b *Backend) initialize(w http.ResponseWriter, r *http.Request) {
	v, ok := intParams(w, r, poolParams...)
	if !ok {
		return
	}
	for _, n := range v {
		if n <= 0 {
			writeText(w, http.StatusBadRequest, "All parameters must be positive integers.")
			return
		}
	}
	if v[1] > v[0] {
		writeText(w, http.StatusBadRequest, "Total tickets cannot exceed max capacity.")
		return
	}

	b.mu.Lock()
	b.pool.initialized = true
	b.size = v[1]
	b.mu.Unlock()

	b.Publish(fmt.Sprintf("Ticket pool initialized with max capacity: %d, total tickets: %d, release rate: %d, retrieval rate: %d",
		v[0], v[1], v[2], v[3]))
	writeText(w, http.StatusOK, "Ticket pool initialized successfully.")
}

func (b *Backend) start(w http.ResponseWriter, r *http.Request) {
	v, ok := intParams(w, r, "vendorCount", "consumerCount")
	if !ok {
		return
	}
	if v[0] <= 0 || v[1] <= 0 {
		writeText(w, http.StatusBadRequest, "Vendor and Consumer counts must be positive integers.")
		return
	}

	b.mu.Lock()
	b.pool.running = true
	b.pool.vendors, b.pool.consumers = v[0], v[1]
	b.mu.Unlock()

	b.Publish(fmt.Sprintf("Processes resumed or started with %d vendors and %d consumers.", v[0], v[1]))
	writeText(w, http.StatusOK, "Processes started or resumed successfully.")
}

func (b *Backend) stop(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.pool.running = false
	b.mu.Unlock()
	writeText(w, http.StatusOK, "Processes stopped successfully.")
}

func (b *Backend) reset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.pool = poolState{}
	b.size = 0
	b.mu.Unlock()

	b.Publish("Ticket pool reset successfully.")
	writeText(w, http.StatusOK, "Ticket pool has been reset.")
}

func (b *Backend) save(w http.ResponseWriter, r *http.Request) {
	if _, ok := intParams(w, r, poolParams...); !ok {
		return
	}

	b.mu.Lock()
	b.pool.saved++
	b.mu.Unlock()
	writeText(w, http.StatusOK, "Configuration saved successfully to ticket-pool-configuration.json")
}

func (b *Backend) clearLogs(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Logs cleared.")
}

func (b *Backend) sendLog(w http.ResponseWriter, r *http.Request) {
	b.Publish("Test log message from backend")
	writeText(w, http.StatusOK, "Log sent")
}

func (b *Backend) getSize(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	size, status, body := b.size, b.sizeStatus, b.sizeBody
	b.mu.Unlock()

	switch {
	case status != 0:
		writeText(w, status, http.StatusText(status))
	case body != "":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	default:
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, "%d", size)
	}
}

// Running reports whether start was called after the last stop or reset
func (b *Backend) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pool.running
}

// Initialized reports whether the pool was initialized since the last reset
func (b *Backend) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pool.initialized
}

// SaveCount returns how many times save succeeded
func (b *Backend) SaveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pool.saved
}
