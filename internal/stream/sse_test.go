package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/poolwatch/internal/backendtest"
	"github.com/charliek/poolwatch/internal/domain"
)

func TestSSETransport_ReadsDataLines(t *testing.T) {
	backend := backendtest.Start(t)
	tr := NewSSETransport(backend.SSEURL())
	assert.Equal(t, "sse", tr.Name())

	session, err := tr.Connect(context.Background(), "ignored")
	require.NoError(t, err)
	defer session.Close()

	requireEventually(t, func() bool { return backend.SSEClients() == 1 }, "client not registered")

	backend.Publish("Thread: pool-1 - Current Pool Size: 12")
	msg, err := session.Next()
	require.NoError(t, err)
	assert.Equal(t, "Thread: pool-1 - Current Pool Size: 12", msg.Line)
}

func TestSSETransport_ParsesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": comment\n\nevent: log\nid: 7\ndata: spaced\r\n\ndata:tight\n\n"))
	}))
	defer server.Close()

	session, err := NewSSETransport(server.URL).Connect(context.Background(), "")
	require.NoError(t, err)
	defer session.Close()

	msg, err := session.Next()
	require.NoError(t, err)
	assert.Equal(t, "spaced", msg.Line)

	msg, err = session.Next()
	require.NoError(t, err)
	assert.Equal(t, "tight", msg.Line)

	// Body ends: the stream is lost
	_, err = session.Next()
	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestSSETransport_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewSSETransport(server.URL).Connect(context.Background(), "")
	var protocolErr *domain.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Contains(t, protocolErr.Detail, "404")
}

func TestSSETransport_SessionOutlivesDialContext(t *testing.T) {
	backend := backendtest.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	session, err := NewSSETransport(backend.SSEURL()).Connect(ctx, "")
	require.NoError(t, err)
	defer session.Close()
	cancel()

	requireEventually(t, func() bool { return backend.SSEClients() == 1 }, "client not registered")
	backend.Publish("after cancel")

	msg, err := session.Next()
	require.NoError(t, err)
	assert.Equal(t, "after cancel", msg.Line)
}

func TestSSETransport_CloseUnblocksNext(t *testing.T) {
	backend := backendtest.Start(t)
	session, err := NewSSETransport(backend.SSEURL()).Connect(context.Background(), "")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Next()
		errCh <- err
	}()

	require.NoError(t, session.Close())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestSSETransport_DroppedClientForgotten(t *testing.T) {
	backend := backendtest.Start(t)
	tr := NewSSETransport(backend.SSEURL())

	session, err := tr.Connect(context.Background(), "")
	require.NoError(t, err)
	defer session.Close()
	requireEventually(t, func() bool { return backend.SSEClients() == 1 }, "client not registered")

	backend.DropConnections()
	assert.Equal(t, 0, backend.SSEClients())

	_, err = session.Next()
	require.Error(t, err)
}
