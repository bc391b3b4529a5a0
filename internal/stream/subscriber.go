package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/charliek/poolwatch/internal/clock"
	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/logs"
)

// Config holds subscriber settings
type Config struct {
	Topic          string
	ReconnectDelay time.Duration
}

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evDialed
	evMessage
	evLost
	evRetry
	evClose
)

type event struct {
	kind    eventKind
	gen     uint64
	session Session
	msg     Message
	err     error
	ack     chan struct{}
}

// Subscriber keeps a subscription to the log topic alive. All state lives in
// a single actor goroutine; dial, read and timer goroutines report back over
// the events channel tagged with the generation they belong to, and anything
// from an older generation is dropped.
type Subscriber struct {
	transport Transport
	clock     clock.Clock
	logs      *logs.Stream
	logger    *slog.Logger
	cfg       Config

	events    chan event
	done      chan struct{}
	closeOnce sync.Once

	statusMu sync.RWMutex
	status   domain.ConnectionStatus

	// actor state
	state      domain.ConnectionState
	gen        uint64
	session    Session
	cancelDial context.CancelFunc
	retry      *clock.Timer
}

// NewSubscriber creates a subscriber and starts its actor. It stays
// disconnected until Connect is called.
func NewSubscriber(transport Transport, clk clock.Clock, stream *logs.Stream, logger *slog.Logger, cfg Config) *Subscriber {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = constants.DefaultReconnectDelay
	}
	if cfg.Topic == "" {
		cfg.Topic = constants.DefaultLogTopic
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Subscriber{
		transport: transport,
		clock:     clk,
		logs:      stream,
		logger:    logger.With("component", "stream", "transport", transport.Name()),
		cfg:       cfg,
		events:    make(chan event, 16),
		done:      make(chan struct{}),
		status: domain.ConnectionStatus{
			State: domain.StateDisconnected,
			Since: clk.Now(),
		},
	}
	go s.run()
	return s
}

// Connect starts connecting unless a connection is already up or underway.
// It returns once the request is accepted; the handshake runs in the
// background.
func (s *Subscriber) Connect() {
	s.call(evConnect)
}

// Disconnect tears down the session and cancels any pending reconnect
func (s *Subscriber) Disconnect() {
	s.call(evDisconnect)
}

// LogStream returns the shared log sequence fed by this subscriber
func (s *Subscriber) LogStream() *logs.Stream {
	return s.logs
}

// Status returns the current connection status
func (s *Subscriber) Status() domain.ConnectionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Close disconnects and stops the actor. Safe to call more than once.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.call(evClose)
		<-s.done
	})
}

// call sends a command and waits until the actor has processed it
func (s *Subscriber) call(kind eventKind) {
	ack := make(chan struct{})
	if !s.send(event{kind: kind, ack: ack}) {
		return
	}
	select {
	case <-ack:
	case <-s.done:
	}
}

// send delivers an event unless the actor has exited
func (s *Subscriber) send(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Subscriber) run() {
	defer close(s.done)

	for ev := range s.events {
		switch ev.kind {
		case evConnect:
			s.handleConnect()
		case evDisconnect:
			s.teardown()
		case evDialed:
			s.handleDialed(ev)
		case evMessage:
			s.handleMessage(ev)
		case evLost:
			s.handleLost(ev)
		case evRetry:
			s.handleRetry(ev)
		case evClose:
			s.teardown()
			close(ev.ack)
			return
		}
		if ev.ack != nil {
			close(ev.ack)
		}
	}
}

func (s *Subscriber) handleConnect() {
	if s.state != domain.StateDisconnected {
		return
	}
	s.stopRetry()
	s.dial()
}

func (s *Subscriber) dial() {
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelDial = cancel

	s.setState(domain.StateConnecting, nil, true)
	s.logger.Debug("connecting", "topic", s.cfg.Topic, "attempt", s.Status().Attempts)

	go func() {
		session, err := s.transport.Connect(ctx, s.cfg.Topic)
		if !s.send(event{kind: evDialed, gen: gen, session: session, err: err}) && session != nil {
			_ = session.Close()
		}
	}()
}

// handleDialed finishes a dial. A failed dial, including an ERROR frame
// answering the handshake, schedules the usual retry; ERROR frames on an
// established session are handled by handleMessage and never reconnect.
func (s *Subscriber) handleDialed(ev event) {
	if ev.gen != s.gen || s.state != domain.StateConnecting {
		if ev.session != nil {
			_ = ev.session.Close()
		}
		return
	}

	s.cancelDial()
	s.cancelDial = nil

	if ev.err != nil {
		s.logger.Warn("connection failed", "error", ev.err, "retry_in", s.cfg.ReconnectDelay)
		s.setState(domain.StateDisconnected, ev.err, false)
		s.scheduleRetry()
		return
	}

	s.session = ev.session
	s.setState(domain.StateConnected, nil, false)
	s.logger.Info("subscribed", "topic", s.cfg.Topic)

	go s.read(s.gen, ev.session)
}

// read pumps a session into the actor, preserving receipt order
func (s *Subscriber) read(gen uint64, session Session) {
	for {
		msg, err := session.Next()
		if err != nil {
			s.send(event{kind: evLost, gen: gen, err: err})
			return
		}
		if !s.send(event{kind: evMessage, gen: gen, msg: msg}) {
			return
		}
	}
}

func (s *Subscriber) handleMessage(ev event) {
	if ev.gen != s.gen || s.state != domain.StateConnected {
		return
	}
	if ev.msg.Err != nil {
		s.logger.Warn("broker error", "error", ev.msg.Err)
		s.recordError(ev.msg.Err)
		return
	}
	s.logs.Append(ev.msg.Line)
}

func (s *Subscriber) handleLost(ev event) {
	if ev.gen != s.gen || s.state != domain.StateConnected {
		return
	}

	_ = s.session.Close()
	s.session = nil

	err := ev.err
	var transportErr *domain.TransportError
	if !errors.As(err, &transportErr) {
		err = &domain.TransportError{Op: "read", Err: err}
	}

	s.logger.Warn("connection lost", "error", err, "retry_in", s.cfg.ReconnectDelay)
	s.setState(domain.StateDisconnected, err, false)
	s.scheduleRetry()
}

func (s *Subscriber) handleRetry(ev event) {
	if ev.gen != s.gen || s.state != domain.StateDisconnected || s.retry == nil {
		return
	}
	s.retry = nil
	s.dial()
}

func (s *Subscriber) scheduleRetry() {
	gen := s.gen
	s.retry = s.clock.AfterFunc(s.cfg.ReconnectDelay, func() {
		s.send(event{kind: evRetry, gen: gen})
	})
}

func (s *Subscriber) stopRetry() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

// teardown drops whatever is in flight and moves to Disconnected
func (s *Subscriber) teardown() {
	s.stopRetry()

	if s.state == domain.StateDisconnected {
		return
	}

	s.gen++
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	if s.session != nil {
		_ = s.session.Close()
		s.session = nil
	}

	s.setState(domain.StateDisconnected, nil, false)
	s.logger.Info("disconnected")
}

func (s *Subscriber) setState(state domain.ConnectionState, err error, attempt bool) {
	s.state = state

	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	if s.status.State != state {
		s.status.Since = s.clock.Now()
	}
	s.status.State = state
	if err != nil {
		s.status.LastError = err
	}
	switch {
	case attempt:
		s.status.Attempts++
	case state == domain.StateConnected:
		s.status.Attempts = 0
		s.status.LastError = nil
	}
}

func (s *Subscriber) recordError(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastError = err
}
