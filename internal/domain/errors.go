package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidParams  = errors.New("invalid parameters")
	ErrSurfaceMissing = errors.New("drawing surface not found")
	ErrNegativeSize   = errors.New("negative pool size")
	ErrInvalidPattern = errors.New("invalid filter pattern")
)

// TransportError is a connection-level failure: refused, dropped, or a
// session that ended. It triggers a reconnect after the backoff delay.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a broker-level error such as a rejected handshake or an
// ERROR frame. On a live session it is reported but never reconnects.
type ProtocolError struct {
	Message string
	Detail  string
}

func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("protocol error: %s (%s)", e.Message, e.Detail)
	}
	return "protocol error: " + e.Message
}

// FetchError is a failed pool size request. The tick is skipped.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetching pool size: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderError is a chart that could not be drawn. The renderer degrades to
// headless mode instead of failing the caller.
type RenderError struct {
	Surface string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Surface, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Kind returns a short classification for an error, used by status views
func Kind(err error) string {
	var (
		transportErr *TransportError
		protocolErr  *ProtocolError
		fetchErr     *FetchError
		renderErr    *RenderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &renderErr):
		return "render"
	case errors.Is(err, ErrInvalidParams):
		return "params"
	default:
		return "internal"
	}
}
