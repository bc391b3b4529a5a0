package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/poolwatch/internal/backendtest"
)

type failingTransport struct {
	name  string
	err   error
	calls int
}

func (f *failingTransport) Name() string { return f.name }

func (f *failingTransport) Connect(context.Context, string) (Session, error) {
	f.calls++
	return nil, f.err
}

func TestFallbackTransport_UsesFirstSuccess(t *testing.T) {
	backend := backendtest.Start(t)

	first := &failingTransport{name: "broken", err: errors.New("refused")}
	tr := NewFallbackTransport(nil, first, NewSSETransport(backend.SSEURL()))
	assert.Equal(t, "broken+sse", tr.Name())

	session, err := tr.Connect(context.Background(), backendtest.LogsTopic)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, 1, first.calls)

	requireEventually(t, func() bool { return backend.SSEClients() == 1 }, "fallback session not open")
}

func TestFallbackTransport_ReturnsLastError(t *testing.T) {
	a := &failingTransport{name: "a", err: errors.New("first")}
	b := &failingTransport{name: "b", err: errors.New("second")}

	_, err := NewFallbackTransport(nil, a, b).Connect(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "second", err.Error())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestFallbackTransport_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &failingTransport{name: "a", err: context.Canceled}
	b := &failingTransport{name: "b", err: errors.New("unused")}

	_, err := NewFallbackTransport(nil, a, b).Connect(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.calls)
}

func TestFallbackTransport_Empty(t *testing.T) {
	_, err := NewFallbackTransport(nil).Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestFallbackTransport_StompPreferred(t *testing.T) {
	backend := backendtest.Start(t)
	tr := NewFallbackTransport(nil,
		NewStompTransport(backend.StompURL(), time.Second),
		NewSSETransport(backend.SSEURL()),
	)

	session, err := tr.Connect(context.Background(), backendtest.LogsTopic)
	require.NoError(t, err)
	defer session.Close()

	requireEventually(t, func() bool { return backend.StompConnections() == 1 }, "stomp not used")
	assert.Equal(t, 0, backend.SSEClients())
}
