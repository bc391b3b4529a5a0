package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/logs"
	"github.com/charliek/poolwatch/internal/series"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.updateViewport()

	case LogsMsg:
		m.handleLogs([]domain.LogEntry(msg))

	case SamplesMsg:
		m.samples = series.Snapshot(msg)

	case TickMsg:
		m.status = m.dashboard.Status()
		cmds = append(cmds, tickCmd())

	case ActionResultMsg:
		m.lastAction = msg.Action
		m.lastText = msg.Text
		m.lastErr = msg.Err
		if msg.Err == nil && msg.Action == "reset" {
			m.samples = nil
		}
		m.status = m.dashboard.Status()
		cmds = append(cmds, actionResultClearCmd())

	case ActionResultClearMsg:
		m.lastAction = ""
		m.lastText = ""
		m.lastErr = nil
	}

	// Handle viewport updates
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle mode-specific keys first
	switch m.mode {
	case ModeFilter:
		cmd := m.handleFilterKey(msg)
		return m, cmd
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	d := m.dashboard
	pool := m.pool

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "i":
		return m, action("initialize", func(ctx context.Context) (string, error) {
			return d.Initialize(ctx, pool.PoolConfig)
		})

	case "s":
		return m, action("start", func(ctx context.Context) (string, error) {
			return d.Start(ctx, pool.StartParams())
		})

	case "x":
		return m, action("stop", d.Stop)

	case "p":
		return m, func() tea.Msg {
			if d.StopSampling() {
				return ActionResultMsg{Action: "sampling", Text: "Sampling stopped."}
			}
			return ActionResultMsg{Action: "sampling", Text: "Sampling was not running."}
		}

	case "r":
		return m, action("reset", d.Reset)

	case "w":
		return m, action("save", func(ctx context.Context) (string, error) {
			return d.Save(ctx, pool.PoolConfig)
		})

	case "c":
		return m, action("clear logs", d.ClearLogs)

	case "t":
		return m, action("send log", d.SendTestLog)

	case "R":
		return m, func() tea.Msg {
			d.Reconnect()
			return ActionResultMsg{Action: "reconnect", Text: "Reconnecting log stream."}
		}

	case "+", "=":
		m.pool.VendorCount++
		return m, nil

	case "-":
		if m.pool.VendorCount > 1 {
			m.pool.VendorCount--
		}
		return m, nil

	case "]":
		m.pool.ConsumerCount++
		return m, nil

	case "[":
		if m.pool.ConsumerCount > 1 {
			m.pool.ConsumerCount--
		}
		return m, nil
	}

	m.handleNavigationKey(msg)
	return m, nil
}

// handleFilterKey handles keys in filter mode. The filter applies as the
// user types.
func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.setFilter("", m.filterRegex)
		return nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()
		return nil

	case "ctrl+r":
		m.setFilter(m.textInput.Value(), !m.filterRegex)
		return nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.setFilter(m.textInput.Value(), m.filterRegex)
	return cmd
}

// handleNavigationKey handles scrolling and view keys.
// Returns true if the key was handled.
func (m *Model) handleNavigationKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "?":
		m.mode = ModeHelp
		return true

	case "/":
		m.mode = ModeFilter
		m.textInput.SetValue(m.filterPattern)
		m.textInput.Focus()
		return true

	case "esc":
		m.setFilter("", false)
		return true

	case "up", "k":
		m.viewport.LineUp(1)
		m.followMode = false
		return true

	case "down", "j":
		m.viewport.LineDown(1)
		return true

	case "pgup":
		m.viewport.HalfViewUp()
		m.followMode = false
		return true

	case "pgdown":
		m.viewport.HalfViewDown()
		return true

	case "home", "g":
		m.viewport.GotoTop()
		m.followMode = false
		return true

	case "end", "G":
		m.viewport.GotoBottom()
		m.followMode = true
		return true

	case "F":
		m.followMode = !m.followMode
		if m.followMode {
			m.viewport.GotoBottom()
		}
		return true
	}

	return false
}

// handleWindowSize sizes the log viewport to what is left after the header,
// chart and status bar
func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	viewportHeight := msg.Height - headerHeight - chartPanelHeight - footerHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.viewport.YPosition = headerHeight + chartPanelHeight
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
}

// handleLogs replaces the log sequence with the latest snapshot
func (m *Model) handleLogs(entries []domain.LogEntry) {
	// Check if we're at/near bottom BEFORE replacing content
	wasNearBottom := m.isNearBottom()

	m.logEntries = entries
	m.updateViewport()

	if wasNearBottom {
		m.followMode = true
		m.viewport.GotoBottom()
	} else if m.followMode {
		m.viewport.GotoBottom()
	}
}

// setFilter compiles pattern; an invalid regex is reported and shows
// every line
func (m *Model) setFilter(pattern string, regex bool) {
	m.filterPattern = pattern
	m.filterRegex = regex
	m.filterErr = nil
	if _, err := logs.NewFilter(m.logFilter()); err != nil {
		m.filterErr = err
	}
	m.updateViewport()
}

func (m *Model) logFilter() domain.LogFilter {
	return domain.LogFilter{Pattern: m.filterPattern, IsRegex: m.filterRegex}
}

// filteredEntries returns the visible tail of the log and the number of
// matching lines before the tail was cut
func (m *Model) filteredEntries() ([]domain.LogEntry, int) {
	filter := m.logFilter()
	if m.filterErr != nil {
		filter = domain.LogFilter{}
	}
	entries, total, err := logs.FilterEntriesLimit(m.logEntries, filter, constants.MaxDashboardLogLines)
	if err != nil {
		return nil, 0
	}
	return entries, total
}

// isNearBottom checks if the viewport is at or near the bottom
func (m *Model) isNearBottom() bool {
	if m.viewport.AtBottom() {
		return true
	}
	return m.viewport.ScrollPercent() >= nearBottomThreshold
}

// updateViewport updates the viewport content
func (m *Model) updateViewport() {
	entries, _ := m.filteredEntries()
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = m.formatLogEntry(entry)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// formatLogEntry formats a single log entry for display
func (m *Model) formatLogEntry(entry domain.LogEntry) string {
	seq := fmt.Sprintf("%5d", entry.Seq)
	ts := entry.ReceivedAt.Format("15:04:05")
	return truncate(fmt.Sprintf("%s %s %s", dimStyle.Render(ts), dimStyle.Render(seq), lineStyle(entry.Line).Render(entry.Line)), m.width)
}

// nearBottomThreshold is the scroll percentage (0.0-1.0) at which we consider
// the viewport to be "near" the bottom for auto-follow purposes.
const nearBottomThreshold = 0.98
