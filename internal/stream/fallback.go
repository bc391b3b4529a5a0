package stream

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// FallbackTransport tries each transport in order and keeps the first one
// that completes a handshake.
type FallbackTransport struct {
	transports []Transport
	logger     *slog.Logger
}

// NewFallbackTransport creates a transport over the given candidates
func NewFallbackTransport(logger *slog.Logger, transports ...Transport) *FallbackTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackTransport{transports: transports, logger: logger}
}

// Name implements Transport
func (t *FallbackTransport) Name() string {
	names := make([]string, len(t.transports))
	for i, tr := range t.transports {
		names[i] = tr.Name()
	}
	return strings.Join(names, "+")
}

// Connect returns the first successful session, or the last error
func (t *FallbackTransport) Connect(ctx context.Context, topic string) (Session, error) {
	err := errors.New("no transports configured")
	for _, tr := range t.transports {
		var session Session
		session, err = tr.Connect(ctx, topic)
		if err == nil {
			return session, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		t.logger.Debug("transport unavailable, trying next", "transport", tr.Name(), "error", err)
	}
	return nil, err
}
