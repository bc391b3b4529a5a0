package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/charliek/poolwatch/internal/domain"
)

// Layout heights outside the log viewport
const (
	headerHeight = 2 // state panel plus margin
	footerHeight = 2 // status bar
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.mode == ModeHelp {
		return m.helpView()
	}

	var sb strings.Builder

	sb.WriteString(m.statePanel())
	sb.WriteString("\n")

	for _, line := range blockChart(m.samples, m.width) {
		sb.WriteString(truncate(line, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	sb.WriteString(m.statusBar())

	return sb.String()
}

// statePanel renders the connection, sampling and worker counts
func (m Model) statePanel() string {
	st := m.status

	stream := connectionStyle(st.Connection.State).Render(st.Connection.State.String())
	if st.Connection.State == domain.StateDisconnected && st.Connection.LastError != nil {
		stream = fmt.Sprintf("%s (%s: %s)", stream, st.Transport, domain.Kind(st.Connection.LastError))
	} else {
		stream = fmt.Sprintf("%s (%s)", stream, st.Transport)
	}

	sampling := samplingStyle(st.Sampling.State).Render(st.Sampling.State.String())
	sampling += fmt.Sprintf(" %d/%d", st.Samples, st.Capacity)
	if st.Sampling.Failed > 0 {
		sampling += dimStyle.Render(fmt.Sprintf(" %d failed", st.Sampling.Failed))
	}

	chart := "headless"
	if st.ChartSurface != "" {
		chart = st.ChartSurface
	}

	items := []string{
		"Stream: " + stream,
		"Sampling: " + sampling,
		fmt.Sprintf("Vendors: %d", m.pool.VendorCount),
		fmt.Sprintf("Consumers: %d", m.pool.ConsumerCount),
		"Chart: " + dimStyle.Render(chart),
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(items, "  "))
	return headerStyle.Render(truncate(header, m.width-2))
}

// statusBar renders the bottom status bar
func (m Model) statusBar() string {
	var left string

	switch {
	case m.mode == ModeFilter:
		kind := "Filter"
		if m.filterRegex {
			kind = "Regex filter"
		}
		left = kind + ": " + m.textInput.View()
	case m.lastAction != "":
		if m.lastErr != nil {
			left = errorStyle.Render(" "+m.lastAction+" failed ") + " " + m.lastErr.Error()
		} else {
			left = m.lastAction + ": " + m.lastText
		}
	case m.filterErr != nil:
		left = errorStyle.Render(" filter ") + " " + m.filterErr.Error()
	case m.filterPattern != "":
		left = fmt.Sprintf("Filter: %s (ESC to clear)", m.filterPattern)
	default:
		left = "? for help"
	}

	visible, total := m.filteredEntries()
	followIndicator := "[FOLLOW]"
	if !m.followMode {
		followIndicator = "[PAUSED]"
	}
	right := fmt.Sprintf("%s %d/%d lines", followIndicator, len(visible), total)

	// Calculate widths
	leftWidth := m.width - len(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(truncate(left, leftWidth-2))
	rightPart := statusStyle.Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `
poolwatch - Ticket Pool Monitor

Pool control:
  i          Initialize pool with configured parameters
  s          Start vendors and consumers, begin sampling
  x          Stop vendors and consumers
  p          Stop sampling
  r          Reset pool and clear the chart
  w          Save configuration on the backend
  c          Clear logs
  t          Ask the backend to send a test log line
  R          Reconnect the log stream
  +/-        More/fewer vendors
  ]/[        More/fewer consumers

Navigation:
  j/↓        Scroll down
  k/↑        Scroll up (pauses auto-follow)
  g/Home     Go to top (pauses auto-follow)
  G/End      Go to bottom (resumes auto-follow)
  PgUp/PgDn  Page up/down
  F          Toggle auto-follow mode

Filtering:
  /          Filter log lines (Ctrl+R toggles regex)
  ESC        Clear filter

Other:
  ?          Toggle help
  q/Ctrl+C   Quit

Press any key to close help...
`
	return helpStyle.Render(help)
}

// truncate cuts s to width visible cells, keeping ANSI sequences intact
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
