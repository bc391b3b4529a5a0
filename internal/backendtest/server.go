// Package backendtest runs an in-process stand-in for the ticket pool
// backend: the Control API, the STOMP log broker and the SSE log feed.
package backendtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Paths served by the fake backend, matching the real one
const (
	APIPath    = "/api/ticket-pool"
	StompPath  = "/ws-logs/websocket"
	SSEPath    = APIPath + "/logs"
	LogsTopic  = "/topic/logs"
	healthPath = "/health"
)

// Request records a Control API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Backend is the fake. The zero value is not usable; call New.
type Backend struct {
	router *chi.Mux
	server *httptest.Server
	broker *broker
	sse    *sseHub

	mu         sync.Mutex
	requests   []Request
	size       int
	sizeStatus int    // non-zero makes GET /size fail with this status
	sizeBody   string // raw body override for GET /size
	pool       poolState
}

type poolState struct {
	initialized bool
	running     bool
	vendors     int
	consumers   int
	saved       int
}

// New creates a backend without starting it
func New() *Backend {
	b := &Backend{
		router: chi.NewRouter(),
		broker: newBroker(),
		sse:    newSSEHub(),
	}

	b.router.Use(middleware.RequestID)
	b.router.Use(middleware.Recoverer)
	b.router.Use(b.record)

	b.registerRoutes()
	return b
}

// Start starts a backend on a loopback port and stops it when the test
// ends
func Start(tb testing.TB) *Backend {
	tb.Helper()
	b := New()
	b.server = httptest.NewServer(b.router)
	tb.Cleanup(b.Close)
	return b
}

// Handler exposes the router for callers managing their own server
func (b *Backend) Handler() http.Handler {
	return b.router
}

func (b *Backend) registerRoutes() {
	b.router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	b.router.Route(APIPath, func(r chi.Router) {
		r.Post("/initialize", b.initialize)
		r.Post("/start", b.start)
		r.Post("/stop", b.stop)
		r.Post("/reset", b.reset)
		r.Post("/save", b.save)
		r.Post("/clear-logs", b.clearLogs)
		r.Post("/send-log", b.sendLog)
		r.Get("/size", b.getSize)
		r.Get("/logs", b.sse.serve)
	})

	b.router.Get(StompPath, b.broker.serve)
}

// record keeps every Control API request for assertions
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, APIPath) && r.URL.Path != SSEPath {
			b.mu.Lock()
			b.requests = append(b.requests, Request{
				Method: r.Method,
				Path:   strings.TrimPrefix(r.URL.Path, APIPath),
				Query:  r.URL.Query(),
			})
			b.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

// URL returns the server root URL
func (b *Backend) URL() string {
	return b.server.URL
}

// APIBaseURL returns the Control API base URL
func (b *Backend) APIBaseURL() string {
	return b.server.URL + APIPath
}

// StompURL returns the broker's WebSocket URL
func (b *Backend) StompURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + StompPath
}

// SSEURL returns the server-sent events log URL
func (b *Backend) SSEURL() string {
	return b.server.URL + SSEPath
}

// Requests returns the recorded Control API requests
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]Request, len(b.requests))
	copy(result, b.requests)
	return result
}

// Publish sends a log line to every STOMP subscriber and SSE client
func (b *Backend) Publish(line string) {
	b.broker.publish(LogsTopic, line)
	b.sse.publish(line)
}

// SetSize sets the value served by GET /size and clears any failure
func (b *Backend) SetSize(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.size = n
	b.sizeStatus = 0
	b.sizeBody = ""
}

// FailSize makes GET /size answer with the given status
func (b *Backend) FailSize(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sizeStatus = status
}

// SetSizeBody makes GET /size answer 200 with a raw body
func (b *Backend) SetSizeBody(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sizeBody = body
}

// RejectStomp makes the broker answer CONNECT with an ERROR frame carrying
// message. An empty message accepts connections again.
func (b *Backend) RejectStomp(message string) {
	b.broker.setReject(message)
}

// SendStompError sends an ERROR frame to every subscribed connection
func (b *Backend) SendStompError(message string) {
	b.broker.sendError(message)
}

// DropConnections closes every open STOMP and SSE connection
func (b *Backend) DropConnections() {
	b.broker.dropAll()
	b.sse.dropAll()
}

// StompSubscribers returns the number of STOMP connections subscribed to
// the log topic
func (b *Backend) StompSubscribers() int {
	return b.broker.subscribers(LogsTopic)
}

// StompConnections returns the number of open STOMP connections
func (b *Backend) StompConnections() int {
	return b.broker.connections()
}

// SSEClients returns the number of connected SSE clients
func (b *Backend) SSEClients() int {
	return b.sse.count()
}

// Close drops all connections and shuts the server down
func (b *Backend) Close() {
	b.DropConnections()
	if b.server != nil {
		b.server.Close()
	}
}
