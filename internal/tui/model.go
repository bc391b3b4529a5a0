package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/poolwatch/internal/config"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/series"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeHelp
)

// Dashboard is what the TUI drives. *monitor.Monitor implements it.
type Dashboard interface {
	Initialize(ctx context.Context, cfg domain.PoolConfig) (string, error)
	Start(ctx context.Context, params domain.StartParams) (string, error)
	Stop(ctx context.Context) (string, error)
	StopSampling() bool
	Reset(ctx context.Context) (string, error)
	Save(ctx context.Context, cfg domain.PoolConfig) (string, error)
	ClearLogs(ctx context.Context) (string, error)
	SendTestLog(ctx context.Context) (string, error)
	Reconnect()
	Status() monitor.Status
}

// Model is the bubbletea model for the dashboard
type Model struct {
	// Dependencies
	dashboard Dashboard

	// State
	pool       config.PoolConfig
	logEntries []domain.LogEntry
	samples    series.Snapshot
	status     monitor.Status

	// UI components
	viewport  viewport.Model
	textInput textinput.Model
	mode      Mode

	// Filtering
	filterPattern string
	filterRegex   bool
	filterErr     error

	// Auto-scroll
	followMode bool

	// Last action result for feedback
	lastAction string
	lastText   string
	lastErr    error

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewModel creates a dashboard model
func NewModel(d Dashboard, pool config.PoolConfig) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		dashboard:  d,
		pool:       pool,
		status:     d.Status(),
		textInput:  ti,
		mode:       ModeNormal,
		followMode: true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// LogsMsg carries the full log sequence after a change
type LogsMsg []domain.LogEntry

// SamplesMsg carries the window after a sample was appended
type SamplesMsg series.Snapshot

// TickMsg is sent periodically
type TickMsg time.Time

// ActionResultMsg is sent when a control action completes
type ActionResultMsg struct {
	Action string
	Text   string
	Err    error
}

// ActionResultClearMsg is sent to clear the action result after a delay
type ActionResultClearMsg struct{}

// actionResultClearDelay is how long to show an action result
const actionResultClearDelay = 4 * time.Second

// actionTimeout bounds a single Control API call
const actionTimeout = 30 * time.Second

// actionResultClearCmd returns a command that clears the action result after a delay
func actionResultClearCmd() tea.Cmd {
	return tea.Tick(actionResultClearDelay, func(t time.Time) tea.Msg {
		return ActionResultClearMsg{}
	})
}

// tickCmd returns a command that ticks periodically
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// action runs a Control API call off the update loop
func action(name string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		text, err := fn(ctx)
		return ActionResultMsg{Action: name, Text: text, Err: err}
	}
}
