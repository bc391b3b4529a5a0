// Package monitor wires the log subscriber, the pool size sampler, the
// chart renderer and the Control API client into one unit.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charliek/poolwatch/internal/chart"
	"github.com/charliek/poolwatch/internal/clock"
	"github.com/charliek/poolwatch/internal/config"
	"github.com/charliek/poolwatch/internal/control"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/logs"
	"github.com/charliek/poolwatch/internal/sampler"
	"github.com/charliek/poolwatch/internal/series"
	"github.com/charliek/poolwatch/internal/stream"
)

// Controller is the subset of the Control API the monitor drives
type Controller interface {
	Initialize(ctx context.Context, cfg domain.PoolConfig) (string, error)
	Start(ctx context.Context, params domain.StartParams) (string, error)
	Stop(ctx context.Context) (string, error)
	Reset(ctx context.Context) (string, error)
	Save(ctx context.Context, cfg domain.PoolConfig) (string, error)
	ClearLogs(ctx context.Context) (string, error)
	SendTestLog(ctx context.Context) (string, error)
	Size(ctx context.Context) (int, error)
}

// Deps overrides the collaborators built from configuration. Zero fields
// fall back to the real implementations.
type Deps struct {
	Clock      clock.Clock
	Logger     *slog.Logger
	Transport  stream.Transport
	Controller Controller
	// Renderers receive every window snapshot after the chart
	Renderers []sampler.Renderer
}

// Status is a point-in-time view of every subsystem
type Status struct {
	Connection   domain.ConnectionStatus
	Transport    string
	Sampling     domain.SamplerStats
	Samples      int
	Capacity     int
	ChartSurface string // empty when headless
	Logs         domain.LogStats
}

// Monitor owns one instance of each subsystem
type Monitor struct {
	cfg        *config.Config
	logger     *slog.Logger
	control    Controller
	transport  stream.Transport
	logs       *logs.Stream
	window     *series.Window
	subscriber *stream.Subscriber
	sampler    *sampler.Sampler
	chart      *chart.Renderer
	renderers  []sampler.Renderer
}

// New builds a monitor. Nothing connects or polls until Open and Start.
func New(cfg *config.Config, deps Deps) *Monitor {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctl := deps.Controller
	if ctl == nil {
		ctl = control.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	}
	transport := deps.Transport
	if transport == nil {
		transport = NewTransport(cfg.Stream, logger)
	}

	logStream := logs.NewStream(clk.Now)
	window := series.NewWindow(cfg.Sampler.Window)
	renderer := chart.NewRenderer(logger, chart.Options{
		Width:  cfg.Chart.Width,
		Height: cfg.Chart.Height,
	})

	renderers := append([]sampler.Renderer{renderer}, deps.Renderers...)

	return &Monitor{
		cfg:       cfg,
		logger:    logger,
		control:   ctl,
		transport: transport,
		logs:      logStream,
		window:    window,
		chart:     renderer,
		subscriber: stream.NewSubscriber(transport, clk, logStream, logger, stream.Config{
			Topic:          cfg.Stream.Topic,
			ReconnectDelay: cfg.Stream.ReconnectDelay,
		}),
		sampler: sampler.New(ctl, window, clk, logger, sampler.Config{
			Interval:       cfg.Sampler.Interval,
			RequestTimeout: cfg.Sampler.RequestTimeout,
		}, renderers...),
		renderers: renderers,
	}
}

// NewTransport builds the log stream transport named by cfg.Transport
func NewTransport(cfg config.StreamConfig, logger *slog.Logger) stream.Transport {
	switch cfg.Transport {
	case config.TransportStomp:
		return stream.NewStompTransport(cfg.URL, cfg.HandshakeTimeout)
	case config.TransportSSE:
		return stream.NewSSETransport(cfg.SSEURL)
	default:
		return stream.NewFallbackTransport(logger,
			stream.NewStompTransport(cfg.URL, cfg.HandshakeTimeout),
			stream.NewSSETransport(cfg.SSEURL),
		)
	}
}

// Open binds the chart to its output file and connects the log stream.
// A chart failure is logged and the monitor keeps running headless.
func (m *Monitor) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = m.InitChart()
	m.subscriber.Connect()
	return nil
}

// InitChart binds the chart to the configured output file, if any. On
// error the chart stays headless.
func (m *Monitor) InitChart() error {
	if m.cfg.Chart.Output == "" {
		return nil
	}
	return m.chart.Initialize(m.cfg.Chart.Output)
}

// Initialize sends the pool parameters to the backend
func (m *Monitor) Initialize(ctx context.Context, cfg domain.PoolConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return m.control.Initialize(ctx, cfg)
}

// Start starts the backend workers and, once the backend accepts, begins
// sampling the pool size
func (m *Monitor) Start(ctx context.Context, params domain.StartParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	text, err := m.control.Start(ctx, params)
	if err != nil {
		return "", fmt.Errorf("starting pool: %w", err)
	}
	m.sampler.Start()
	return text, nil
}

// Stop stops the backend workers. Sampling carries on until StopSampling.
func (m *Monitor) Stop(ctx context.Context) (string, error) {
	return m.control.Stop(ctx)
}

// StartSampling begins polling the pool size without touching the backend
func (m *Monitor) StartSampling() bool {
	return m.sampler.Start()
}

// StopSampling stops polling the pool size
func (m *Monitor) StopSampling() bool {
	return m.sampler.Stop()
}

// Reset resets the backend, empties the local window and redraws every
// renderer with the empty window
func (m *Monitor) Reset(ctx context.Context) (string, error) {
	text, err := m.control.Reset(ctx)
	if err != nil {
		return "", err
	}
	m.window.Clear()
	snap := m.window.Snapshot()
	for _, r := range m.renderers {
		if err := r.Render(snap); err != nil {
			m.logger.Warn("render failed", "error", err)
		}
	}
	return text, nil
}

// Save persists the pool parameters on the backend
func (m *Monitor) Save(ctx context.Context, cfg domain.PoolConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return m.control.Save(ctx, cfg)
}

// ClearLogs clears the backend log and then the local copy
func (m *Monitor) ClearLogs(ctx context.Context) (string, error) {
	text, err := m.control.ClearLogs(ctx)
	if err != nil {
		return "", err
	}
	m.logs.Clear()
	return text, nil
}

// SendTestLog asks the backend to publish a test line
func (m *Monitor) SendTestLog(ctx context.Context) (string, error) {
	return m.control.SendTestLog(ctx)
}

// Reconnect drops the log stream session and dials again immediately
func (m *Monitor) Reconnect() {
	m.subscriber.Disconnect()
	m.subscriber.Connect()
}

// Logs returns the shared log sequence
func (m *Monitor) Logs() *logs.Stream {
	return m.logs
}

// Window returns the pool size window
func (m *Monitor) Window() *series.Window {
	return m.window
}

// Config returns the configuration the monitor was built from
func (m *Monitor) Config() *config.Config {
	return m.cfg
}

// Status returns the state of every subsystem
func (m *Monitor) Status() Status {
	return Status{
		Connection:   m.subscriber.Status(),
		Transport:    m.transport.Name(),
		Sampling:     m.sampler.Stats(),
		Samples:      m.window.Len(),
		Capacity:     m.window.Capacity(),
		ChartSurface: m.chart.Surface(),
		Logs:         m.logs.Stats(),
	}
}

// Close disconnects the log stream, stops sampling and releases the chart.
// Safe to call more than once.
func (m *Monitor) Close() {
	m.subscriber.Close()
	m.sampler.Close()
	m.chart.Teardown()
	m.logs.Close()
}

// Uptime returns how long the log stream has been in its current state
func (s Status) Uptime(now time.Time) time.Duration {
	return now.Sub(s.Connection.Since).Truncate(time.Second)
}
