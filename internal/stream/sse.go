package stream

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// SSETransport reads log lines from the backend's server-sent events
// endpoint. The endpoint carries a single feed, so the topic is ignored.
type SSETransport struct {
	URL        string
	HTTPClient *http.Client
}

// NewSSETransport creates a transport for the given http(s) URL. The client
// must not set an overall timeout since the response body stays open.
func NewSSETransport(rawURL string) *SSETransport {
	return &SSETransport{
		URL:        rawURL,
		HTTPClient: &http.Client{},
	}
}

// Name implements Transport
func (t *SSETransport) Name() string { return "sse" }

// Connect issues the GET and returns once the server answered 200
func (t *SSETransport) Connect(ctx context.Context, _ string) (Session, error) {
	// The session outlives ctx, which only bounds the handshake
	sessionCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)

	req, err := http.NewRequestWithContext(sessionCtx, http.MethodGet, t.URL, nil)
	if err != nil {
		stop()
		cancel()
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.HTTPClient.Do(req)
	if !stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, &domain.TransportError{Op: "dial", Err: ctx.Err()}
	}
	if err != nil {
		cancel()
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &domain.ProtocolError{
			Message: "unexpected status",
			Detail:  resp.Status,
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)

	return &sseSession{
		body:    resp.Body,
		cancel:  cancel,
		scanner: scanner,
	}, nil
}

type sseSession struct {
	body    io.Closer
	cancel  context.CancelFunc
	scanner *bufio.Scanner

	closeOnce sync.Once
	closed    atomic.Bool
}

// Next returns the next data line. Event names, ids and comments are
// skipped.
func (s *sseSession) Next() (Message, error) {
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		return Message{Line: strings.TrimPrefix(data, " ")}, nil
	}

	if s.closed.Load() {
		return Message{}, ErrSessionClosed
	}

	err := s.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	return Message{}, &domain.TransportError{Op: "read", Err: err}
}

// Close cancels the request and closes the body
func (s *sseSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		err = s.body.Close()
	})
	return err
}
