package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport hands every dial to the test, which decides how it ends
type fakeTransport struct {
	dials chan *dialRequest

	// ignoreCtx makes dials wait for the test even after cancellation
	ignoreCtx bool

	mu       sync.Mutex
	open     int
	attempts int
}

type dialRequest struct {
	ctx   context.Context
	topic string
	reply chan dialReply
}

type dialReply struct {
	session *fakeSession
	err     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{dials: make(chan *dialRequest, 16)}
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Connect(ctx context.Context, topic string) (Session, error) {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()

	req := &dialRequest{ctx: ctx, topic: topic, reply: make(chan dialReply, 1)}
	f.dials <- req

	if f.ignoreCtx {
		r := <-req.reply
		if r.err != nil {
			return nil, r.err
		}
		return r.session, nil
	}

	select {
	case r := <-req.reply:
		if r.err != nil {
			return nil, r.err
		}
		return r.session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) openSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) dialAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// nextDial waits for the subscriber to dial
func (f *fakeTransport) nextDial(t *testing.T) *dialRequest {
	t.Helper()
	select {
	case req := <-f.dials:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("expected a dial")
		return nil
	}
}

// noDial asserts that nothing dials within a short window
func (f *fakeTransport) noDial(t *testing.T) {
	t.Helper()
	select {
	case <-f.dials:
		t.Fatal("unexpected dial")
	case <-time.After(50 * time.Millisecond):
	}
}

// accept completes a dial with a fresh open session
func (f *fakeTransport) accept(req *dialRequest) *fakeSession {
	s := &fakeSession{
		transport: f,
		messages:  make(chan Message, 16),
		fail:      make(chan error, 1),
		closed:    make(chan struct{}),
	}
	f.mu.Lock()
	f.open++
	f.mu.Unlock()
	req.reply <- dialReply{session: s}
	return s
}

func (f *fakeTransport) reject(req *dialRequest, err error) {
	req.reply <- dialReply{err: err}
}

type fakeSession struct {
	transport *fakeTransport
	messages  chan Message
	fail      chan error
	closed    chan struct{}
	once      sync.Once
}

func (s *fakeSession) Next() (Message, error) {
	select {
	case m := <-s.messages:
		return m, nil
	case err := <-s.fail:
		return Message{}, err
	case <-s.closed:
		return Message{}, ErrSessionClosed
	}
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.transport.mu.Lock()
		s.transport.open--
		s.transport.mu.Unlock()
	})
	return nil
}

func (s *fakeSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

var errRefused = errors.New("connection refused")

func requireEventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}
