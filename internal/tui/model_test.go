package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/poolwatch/internal/config"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/series"
)

// fakeDashboard records the calls the model makes
type fakeDashboard struct {
	mu       sync.Mutex
	calls    []string
	pool     domain.PoolConfig
	params   domain.StartParams
	sampling bool
	err      error
	status   monitor.Status
}

func (f *fakeDashboard) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDashboard) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDashboard) Initialize(_ context.Context, cfg domain.PoolConfig) (string, error) {
	f.record("initialize")
	f.pool = cfg
	return "Ticket pool initialized successfully.", f.err
}

func (f *fakeDashboard) Start(_ context.Context, params domain.StartParams) (string, error) {
	f.record("start")
	f.params = params
	return "Processes started or resumed successfully.", f.err
}

func (f *fakeDashboard) Stop(context.Context) (string, error) {
	f.record("stop")
	return "Processes stopped successfully.", f.err
}

func (f *fakeDashboard) StopSampling() bool {
	f.record("stop sampling")
	was := f.sampling
	f.sampling = false
	return was
}

func (f *fakeDashboard) Reset(context.Context) (string, error) {
	f.record("reset")
	return "Ticket pool has been reset.", f.err
}

func (f *fakeDashboard) Save(_ context.Context, cfg domain.PoolConfig) (string, error) {
	f.record("save")
	f.pool = cfg
	return "Configuration saved.", f.err
}

func (f *fakeDashboard) ClearLogs(context.Context) (string, error) {
	f.record("clear logs")
	return "Logs cleared.", f.err
}

func (f *fakeDashboard) SendTestLog(context.Context) (string, error) {
	f.record("send log")
	return "Log sent", f.err
}

func (f *fakeDashboard) Reconnect() {
	f.record("reconnect")
}

func (f *fakeDashboard) Status() monitor.Status {
	return f.status
}

func newTestModel() (Model, *fakeDashboard) {
	d := &fakeDashboard{status: monitor.Status{Transport: "stomp", Capacity: 20}}
	return NewModel(d, config.Default().Pool), d
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func sized(t *testing.T) (Model, *fakeDashboard) {
	t.Helper()
	m, d := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, d
}

func entries(lines ...string) []domain.LogEntry {
	result := make([]domain.LogEntry, len(lines))
	for i, line := range lines {
		result[i] = domain.LogEntry{Seq: uint64(i + 1), Line: line}
	}
	return result
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel()

	assert.Equal(t, ModeNormal, m.mode)
	assert.False(t, m.ready)
	assert.Empty(t, m.logEntries)
	assert.True(t, m.followMode)
	assert.Equal(t, "stomp", m.status.Transport)
}

func TestModel_HandleKey_Quit(t *testing.T) {
	m, _ := newTestModel()

	_, cmd := update(t, m, key('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_HandleKey_ModeSwitch(t *testing.T) {
	m, _ := newTestModel()

	m, _ = update(t, m, key('?'))
	assert.Equal(t, ModeHelp, m.mode)

	// any key closes help
	m, _ = update(t, m, key('z'))
	assert.Equal(t, ModeNormal, m.mode)

	m, _ = update(t, m, key('/'))
	assert.Equal(t, ModeFilter, m.mode)
}

func TestModel_ActionKeys(t *testing.T) {
	tests := []struct {
		key  rune
		call string
	}{
		{'i', "initialize"},
		{'s', "start"},
		{'x', "stop"},
		{'p', "stop sampling"},
		{'r', "reset"},
		{'w', "save"},
		{'c', "clear logs"},
		{'t', "send log"},
		{'R', "reconnect"},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			m, d := newTestModel()

			_, cmd := update(t, m, key(tt.key))
			require.NotNil(t, cmd)
			// actions never run on the update loop
			assert.Empty(t, d.Calls())

			msg, ok := cmd().(ActionResultMsg)
			require.True(t, ok)
			assert.NoError(t, msg.Err)
			assert.Equal(t, []string{tt.call}, d.Calls())
		})
	}
}

func TestModel_StartSendsWorkerCounts(t *testing.T) {
	m, d := newTestModel()

	m, _ = update(t, m, key('+'))
	m, _ = update(t, m, key('+'))
	m, _ = update(t, m, key(']'))
	_, cmd := update(t, m, key('s'))
	cmd()

	assert.Equal(t, domain.StartParams{VendorCount: 3, ConsumerCount: 2}, d.params)
}

func TestModel_WorkerCountsNeverBelowOne(t *testing.T) {
	m, _ := newTestModel()

	for i := 0; i < 5; i++ {
		m, _ = update(t, m, key('-'))
		m, _ = update(t, m, key('['))
	}
	assert.Equal(t, 1, m.pool.VendorCount)
	assert.Equal(t, 1, m.pool.ConsumerCount)
}

func TestModel_InitializeSendsPoolConfig(t *testing.T) {
	m, d := newTestModel()

	_, cmd := update(t, m, key('i'))
	cmd()
	assert.Equal(t, config.Default().Pool.PoolConfig, d.pool)
}

func TestModel_ActionResult(t *testing.T) {
	m, d := sized(t)
	d.err = errors.New("request failed: connection refused")

	_, cmd := update(t, m, key('x'))
	m, clear := update(t, m, cmd())
	require.NotNil(t, clear)

	assert.Equal(t, "stop", m.lastAction)
	assert.Contains(t, m.View(), "stop failed")

	m, _ = update(t, m, ActionResultClearMsg{})
	assert.Empty(t, m.lastAction)
	assert.NoError(t, m.lastErr)
}

func TestModel_ResetClearsSamples(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, SamplesMsg(series.Snapshot{{Label: "10:00:00", Value: 4}}))
	require.Len(t, m.samples, 1)

	m, _ = update(t, m, ActionResultMsg{Action: "reset", Text: "Ticket pool has been reset."})
	assert.Empty(t, m.samples)
}

func TestModel_FailedResetKeepsSamples(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, SamplesMsg(series.Snapshot{{Label: "10:00:00", Value: 4}}))

	m, _ = update(t, m, ActionResultMsg{Action: "reset", Err: errors.New("boom")})
	assert.Len(t, m.samples, 1)
}

func TestModel_TickRefreshesStatus(t *testing.T) {
	m, d := newTestModel()
	d.status.Connection.State = domain.StateConnected

	m, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, domain.StateConnected, m.status.Connection.State)
}

func TestModel_LogsMsgReplacesSequence(t *testing.T) {
	m, _ := sized(t)

	m, _ = update(t, m, LogsMsg(entries("a", "b")))
	assert.Len(t, m.logEntries, 2)

	m, _ = update(t, m, LogsMsg(entries("a", "b", "c")))
	assert.Len(t, m.logEntries, 3)

	// a clear arrives as an empty snapshot
	m, _ = update(t, m, LogsMsg(nil))
	assert.Empty(t, m.logEntries)
}

func TestModel_VisibleLinesCapped(t *testing.T) {
	m, _ := sized(t)
	lines := make([]string, 1005)
	for i := range lines {
		lines[i] = "Vendor-1 added a ticket"
	}

	m, _ = update(t, m, LogsMsg(entries(lines...)))
	visible, total := m.filteredEntries()
	assert.Len(t, visible, 1000)
	assert.Equal(t, 1005, total)
	assert.Equal(t, uint64(1005), visible[len(visible)-1].Seq)
}

func TestModel_Filter(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, LogsMsg(entries(
		"Vendor-1 added 5 tickets",
		"Customer-1 bought a ticket",
		"Vendor-2 added 5 tickets",
	)))

	m, _ = update(t, m, key('/'))
	for _, r := range "Vendor" {
		m, _ = update(t, m, key(r))
	}
	visible, _ := m.filteredEntries()
	assert.Len(t, visible, 2)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Vendor", m.filterPattern)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Empty(t, m.filterPattern)
	visible, _ = m.filteredEntries()
	assert.Len(t, visible, 3)
}

func TestModel_InvalidRegexShowsEverything(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, LogsMsg(entries("one", "two")))

	m.setFilter("(", true)
	require.Error(t, m.filterErr)
	assert.ErrorIs(t, m.filterErr, domain.ErrInvalidPattern)

	visible, _ := m.filteredEntries()
	assert.Len(t, visible, 2)
	assert.Contains(t, m.View(), "invalid filter pattern")
}

func TestModel_RegexToggle(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, LogsMsg(entries("Vendor-1", "Vendor-22", "Customer-1")))

	m, _ = update(t, m, key('/'))
	for _, r := range `-\d$` {
		m, _ = update(t, m, key(r))
	}
	visible, _ := m.filteredEntries()
	assert.Empty(t, visible)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.filterRegex)
	visible, _ = m.filteredEntries()
	assert.Len(t, visible, 2)
}

func TestFollowModeDisabledOnScrollUp(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"k key", key('k')},
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}},
		{"g key", key('g')},
		{"home key", tea.KeyMsg{Type: tea.KeyHome}},
		{"pgup key", tea.KeyMsg{Type: tea.KeyPgUp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel()
			m, _ = update(t, m, tt.key)
			assert.False(t, m.followMode, "followMode should be false after %s", tt.name)
		})
	}
}

func TestFollowModeEnabledOnGoToBottom(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"G key", key('G')},
		{"end key", tea.KeyMsg{Type: tea.KeyEnd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel()
			m.followMode = false

			m, _ = update(t, m, tt.key)
			assert.True(t, m.followMode, "followMode should be true after %s", tt.name)
		})
	}
}

func TestFollowModeToggle(t *testing.T) {
	m, _ := newTestModel()

	m, _ = update(t, m, key('F'))
	assert.False(t, m.followMode)

	m, _ = update(t, m, key('F'))
	assert.True(t, m.followMode)
}

func TestView(t *testing.T) {
	m, d := newTestModel()
	assert.Equal(t, "Initializing...", m.View())

	d.status = monitor.Status{
		Connection: domain.ConnectionStatus{
			State:     domain.StateDisconnected,
			LastError: &domain.TransportError{Op: "dial", Err: errors.New("refused")},
		},
		Transport: "stomp+sse",
		Capacity:  20,
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	m, _ = update(t, m, TickMsg(time.Now()))

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "disconnected (stomp+sse: transport)")
	assert.Contains(t, view, "Sampling: idle 0/20")
	assert.Contains(t, view, "Vendors: 1")
	assert.Contains(t, view, "Chart: headless")
	assert.Contains(t, view, "waiting for samples")
}

func TestView_LinesFitWidth(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 30})
	m, _ = update(t, m, LogsMsg(entries(strings.Repeat("Vendor-1 added tickets ", 10))))

	for _, line := range strings.Split(m.View(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 40, "line too wide: %q", ansi.Strip(line))
	}
}

func TestHelpView(t *testing.T) {
	m, _ := sized(t)
	m, _ = update(t, m, key('?'))

	view := m.View()
	assert.Contains(t, view, "Initialize pool")
	assert.Contains(t, view, "Stop sampling")
}

func TestSampleFeed_KeepsLatest(t *testing.T) {
	feed := NewSampleFeed()

	require.NoError(t, feed.Render(series.Snapshot{{Value: 1}}))
	require.NoError(t, feed.Render(series.Snapshot{{Value: 1}, {Value: 2}}))

	got := <-feed.C()
	assert.Len(t, got, 2)

	select {
	case <-feed.C():
		t.Fatal("stale snapshot left in feed")
	default:
	}
}
