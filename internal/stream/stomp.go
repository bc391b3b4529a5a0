package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// StompTransport subscribes to a STOMP 1.2 broker over a raw WebSocket
// endpoint, one STOMP frame per WebSocket message.
type StompTransport struct {
	URL              string
	HandshakeTimeout time.Duration
	Dialer           *websocket.Dialer
}

// NewStompTransport creates a transport for the given ws:// or wss:// URL
func NewStompTransport(rawURL string, handshakeTimeout time.Duration) *StompTransport {
	if handshakeTimeout <= 0 {
		handshakeTimeout = constants.DefaultHandshakeTimeout
	}
	return &StompTransport{
		URL:              rawURL,
		HandshakeTimeout: handshakeTimeout,
		Dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			Subprotocols:     []string{"v12.stomp"},
		},
	}
}

// Name implements Transport
func (t *StompTransport) Name() string { return "stomp" }

// Connect dials the broker, sends CONNECT and SUBSCRIBE, and returns once
// the broker has answered CONNECTED.
func (t *StompTransport) Connect(ctx context.Context, topic string) (Session, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}

	conn, _, err := t.Dialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "dial", Err: err}
	}

	// The handshake gives up when ctx is cancelled or the deadline passes
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(t.HandshakeTimeout))

	s := &stompSession{conn: conn, closed: make(chan struct{})}
	if err := s.handshake(u.Host, topic); err != nil {
		stop()
		conn.Close()
		if ctx.Err() != nil {
			return nil, &domain.TransportError{Op: "handshake", Err: ctx.Err()}
		}
		return nil, err
	}

	if !stop() {
		conn.Close()
		return nil, &domain.TransportError{Op: "handshake", Err: ctx.Err()}
	}
	_ = conn.SetReadDeadline(time.Time{})

	return s, nil
}

type stompSession struct {
	conn    *websocket.Conn
	pending []Message

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

func (s *stompSession) handshake(host, topic string) error {
	connect := frame.New(frame.CONNECT,
		frame.AcceptVersion, "1.2",
		frame.Host, host,
		frame.HeartBeat, "0,0",
	)
	if err := s.writeFrame(connect); err != nil {
		return &domain.TransportError{Op: "handshake", Err: err}
	}

	for {
		frames, err := s.readFrames()
		if err != nil {
			return &domain.TransportError{Op: "handshake", Err: err}
		}
		for _, f := range frames {
			switch f.Command {
			case frame.CONNECTED:
				subscribe := frame.New(frame.SUBSCRIBE,
					frame.Id, "sub-"+uuid.NewString(),
					frame.Destination, topic,
					frame.Ack, "auto",
				)
				if err := s.writeFrame(subscribe); err != nil {
					return &domain.TransportError{Op: "subscribe", Err: err}
				}
				return nil
			case frame.ERROR:
				return protocolError(f)
			}
		}
	}
}

// Next implements Session
func (s *stompSession) Next() (Message, error) {
	for len(s.pending) == 0 {
		frames, err := s.readFrames()
		if err != nil {
			select {
			case <-s.closed:
				return Message{}, ErrSessionClosed
			default:
			}
			return Message{}, &domain.TransportError{Op: "read", Err: err}
		}
		for _, f := range frames {
			switch f.Command {
			case frame.MESSAGE:
				s.pending = append(s.pending, Message{Line: string(f.Body)})
			case frame.ERROR:
				s.pending = append(s.pending, Message{Err: protocolError(f)})
			}
		}
	}

	msg := s.pending[0]
	s.pending = s.pending[1:]
	return msg, nil
}

// Close sends DISCONNECT on a best-effort basis and closes the socket
func (s *stompSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = s.writeFrame(frame.New(frame.DISCONNECT))
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *stompSession) writeFrame(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return fmt.Errorf("encoding %s frame: %w", f.Command, err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, buf.Bytes())
}

// readFrames reads one WebSocket message and decodes the frames in it.
// Heart-beats decode to nothing.
func (s *stompSession) readFrames() ([]*frame.Frame, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var frames []*frame.Frame
	reader := frame.NewReader(bytes.NewReader(data))
	for {
		f, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding frame: %w", err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
}

func protocolError(f *frame.Frame) *domain.ProtocolError {
	return &domain.ProtocolError{
		Message: f.Header.Get(frame.Message),
		Detail:  string(bytes.TrimSpace(f.Body)),
	}
}
