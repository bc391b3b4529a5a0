// Package sampler polls the backend for the pool size on a fixed interval
// and feeds the readings into a sliding window.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/charliek/poolwatch/internal/clock"
	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/series"
)

// SizeFetcher returns the current pool size
type SizeFetcher interface {
	Size(ctx context.Context) (int, error)
}

// Renderer redraws from a window snapshot after every append
type Renderer interface {
	Render(snap series.Snapshot) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(series.Snapshot) error

// Render calls f(snap)
func (f RendererFunc) Render(snap series.Snapshot) error { return f(snap) }

// Config holds sampler settings
type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration // per fetch; defaults to Interval
}

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evFetched
	evClose
)

type event struct {
	kind  eventKind
	gen   uint64
	id    uint64
	value int
	err   error
	reply chan bool
}

// Sampler is a single actor goroutine owning the ticker. Fetches run in
// their own goroutines and report back tagged with the sampling generation,
// so results that land after Stop are discarded.
type Sampler struct {
	fetcher   SizeFetcher
	window    *series.Window
	renderers []Renderer
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config

	events    chan event
	done      chan struct{}
	closeOnce sync.Once

	statsMu sync.RWMutex
	stats   domain.SamplerStats

	// actor state
	state    domain.SamplingState
	gen      uint64
	ticker   *clock.Ticker
	nextID   uint64
	inflight map[uint64]context.CancelFunc
}

// New creates a sampler and starts its actor. It stays idle until Start.
func New(fetcher SizeFetcher, window *series.Window, clk clock.Clock, logger *slog.Logger, cfg Config, renderers ...Renderer) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultSampleInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = cfg.Interval
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sampler{
		fetcher:   fetcher,
		window:    window,
		renderers: renderers,
		clock:     clk,
		logger:    logger.With("component", "sampler"),
		cfg:       cfg,
		events:    make(chan event, 16),
		done:      make(chan struct{}),
		inflight:  make(map[uint64]context.CancelFunc),
	}
	go s.run()
	return s
}

// Start begins polling. Returns false, with a warning, if already running.
func (s *Sampler) Start() bool {
	return s.call(evStart)
}

// Stop stops polling. Returns false, with a warning, if already idle.
// Fetches in flight complete but their results are dropped.
func (s *Sampler) Stop() bool {
	return s.call(evStop)
}

// Window returns the window the sampler appends to
func (s *Sampler) Window() *series.Window {
	return s.window
}

// Stats returns tick counters and the current state
func (s *Sampler) Stats() domain.SamplerStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

// Close stops polling, cancels fetches in flight and ends the actor
func (s *Sampler) Close() {
	s.closeOnce.Do(func() {
		s.call(evClose)
		<-s.done
	})
}

func (s *Sampler) call(kind eventKind) bool {
	reply := make(chan bool, 1)
	if !s.send(event{kind: kind, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-s.done:
		return false
	}
}

func (s *Sampler) send(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Sampler) run() {
	defer close(s.done)

	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.C
		}

		select {
		case <-tick:
			s.handleTick()
		case ev := <-s.events:
			switch ev.kind {
			case evStart:
				ev.reply <- s.handleStart()
			case evStop:
				ev.reply <- s.handleStop()
			case evFetched:
				s.handleFetched(ev)
			case evClose:
				s.handleClose()
				ev.reply <- true
				return
			}
		}
	}
}

func (s *Sampler) handleStart() bool {
	if s.state == domain.SamplingRunning {
		s.logger.Warn("sampling already running")
		return false
	}

	s.gen++
	s.ticker = s.clock.NewTicker(s.cfg.Interval)
	s.setState(domain.SamplingRunning)
	s.logger.Info("sampling started", "interval", s.cfg.Interval)
	return true
}

func (s *Sampler) handleStop() bool {
	if s.state == domain.SamplingIdle {
		s.logger.Warn("sampling not running")
		return false
	}

	s.gen++
	s.ticker.Stop()
	s.ticker = nil
	s.setState(domain.SamplingIdle)
	s.logger.Info("sampling stopped", "in_flight", len(s.inflight))
	return true
}

func (s *Sampler) handleClose() {
	if s.state == domain.SamplingRunning {
		s.handleStop()
	}
	for id, cancel := range s.inflight {
		cancel()
		delete(s.inflight, id)
	}
}

func (s *Sampler) handleTick() {
	s.nextID++
	id, gen := s.nextID, s.gen

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	s.inflight[id] = cancel

	s.updateStats(func(st *domain.SamplerStats) { st.Ticks++ })

	go func() {
		value, err := s.fetcher.Size(ctx)
		s.send(event{kind: evFetched, gen: gen, id: id, value: value, err: err})
	}()
}

func (s *Sampler) handleFetched(ev event) {
	if cancel, ok := s.inflight[ev.id]; ok {
		cancel()
		delete(s.inflight, ev.id)
	}

	if ev.gen != s.gen || s.state != domain.SamplingRunning {
		s.updateStats(func(st *domain.SamplerStats) { st.Discarded++ })
		s.logger.Debug("discarding late pool size", "tick", ev.id)
		return
	}

	err := ev.err
	if err == nil && ev.value < 0 {
		err = fmt.Errorf("%w: %d", domain.ErrNegativeSize, ev.value)
	}
	if err != nil {
		s.updateStats(func(st *domain.SamplerStats) { st.Failed++ })
		s.logger.Error("pool size fetch failed, skipping tick", "tick", ev.id, "error", &domain.FetchError{Err: err})
		return
	}

	now := s.clock.Now()
	s.window.Append(domain.Sample{
		Label: now.Format(constants.SampleLabelLayout),
		Value: ev.value,
		At:    now,
	})
	s.updateStats(func(st *domain.SamplerStats) { st.Appended++ })
	s.logger.Debug("pool size", "value", ev.value, "window", s.window.Len())

	for _, r := range s.renderers {
		if err := r.Render(s.window.Snapshot()); err != nil {
			s.logger.Error("chart render failed", "error", err)
		}
	}
}

func (s *Sampler) setState(state domain.SamplingState) {
	s.state = state
	s.updateStats(func(st *domain.SamplerStats) { st.State = state })
}

func (s *Sampler) updateStats(fn func(*domain.SamplerStats)) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	fn(&s.stats)
}
