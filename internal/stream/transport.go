// Package stream maintains the reconnecting subscription to the backend's
// log topic.
package stream

import (
	"context"
	"errors"
)

// ErrSessionClosed is returned by Session.Next after Close
var ErrSessionClosed = errors.New("session closed")

// Message is one item received on a live session: either a log line or a
// broker-level error. Err is a *domain.ProtocolError when set.
type Message struct {
	Line string
	Err  error
}

// Session is an open, subscribed connection to the log topic
type Session interface {
	// Next blocks until the next message arrives. Any error means the
	// session is gone.
	Next() (Message, error)
	Close() error
}

// Transport opens sessions. Connect performs the full handshake, including
// the topic subscription, and honours ctx for cancellation.
type Transport interface {
	Name() string
	Connect(ctx context.Context, topic string) (Session, error)
}
