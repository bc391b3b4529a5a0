package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/poolwatch/internal/domain"
)

// Colors
var (
	// Connection and sampling state colors
	connectedColor    = lipgloss.Color("10") // Green
	connectingColor   = lipgloss.Color("11") // Yellow
	disconnectedColor = lipgloss.Color("9")  // Red
	idleColor         = lipgloss.Color("8")  // Gray

	// UI colors
	headerBg   = lipgloss.Color("235")
	statusBg   = lipgloss.Color("236")
	helpBg     = lipgloss.Color("234")
	errorColor = lipgloss.Color("9")
	dimColor   = lipgloss.Color("8")
	barColor   = lipgloss.Color("14") // Cyan

	vendorColor   = lipgloss.Color("12") // Blue
	customerColor = lipgloss.Color("13") // Magenta
)

// Styles
var (
	connectedStyle = lipgloss.NewStyle().
			Foreground(connectedColor).
			Bold(true)

	connectingStyle = lipgloss.NewStyle().
			Foreground(connectingColor)

	disconnectedStyle = lipgloss.NewStyle().
				Foreground(disconnectedColor).
				Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(idleColor)

	// Header style
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Error indicator style
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true)

	// Dim style for timestamps
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	barStyle = lipgloss.NewStyle().
			Foreground(barColor)

	vendorStyle   = lipgloss.NewStyle().Foreground(vendorColor)
	customerStyle = lipgloss.NewStyle().Foreground(customerColor)
	plainStyle    = lipgloss.NewStyle()
)

// connectionStyle returns the style for a stream state
func connectionStyle(state domain.ConnectionState) lipgloss.Style {
	switch state {
	case domain.StateConnected:
		return connectedStyle
	case domain.StateConnecting:
		return connectingStyle
	default:
		return disconnectedStyle
	}
}

// samplingStyle returns the style for a sampler state
func samplingStyle(state domain.SamplingState) lipgloss.Style {
	if state == domain.SamplingRunning {
		return connectedStyle
	}
	return idleStyle
}

// lineStyle picks a color from the log line's content
func lineStyle(line string) lipgloss.Style {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "exception"):
		return disconnectedStyle
	case strings.HasPrefix(lower, "vendor"):
		return vendorStyle
	case strings.HasPrefix(lower, "customer"), strings.HasPrefix(lower, "consumer"):
		return customerStyle
	default:
		return plainStyle
	}
}
