package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/monitor"
	"github.com/charliek/poolwatch/internal/series"
)

// SampleFeed hands window snapshots from the sampler to the dashboard. It
// holds at most one snapshot; a newer one replaces an unread older one.
type SampleFeed struct {
	ch chan series.Snapshot
}

// NewSampleFeed creates an empty feed
func NewSampleFeed() *SampleFeed {
	return &SampleFeed{ch: make(chan series.Snapshot, 1)}
}

// Render implements sampler.Renderer
func (f *SampleFeed) Render(snap series.Snapshot) error {
	for {
		select {
		case f.ch <- snap:
			return nil
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// C returns the receive side of the feed
func (f *SampleFeed) C() <-chan series.Snapshot {
	return f.ch
}

// Run starts the dashboard on an opened monitor and blocks until the user
// quits. feed must be one of the monitor's renderers.
func Run(mon *monitor.Monitor, feed *SampleFeed) error {
	model := NewModel(mon, mon.Config().Pool)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())

	obsID, logCh := mon.Logs().Observe()
	go forwardLogs(ctx, p, logCh)
	go forwardSamples(ctx, p, feed.C())

	_, runErr := p.Run()

	cancel()
	mon.Logs().Unobserve(obsID)

	return runErr
}

// forwardLogs forwards log snapshots to the program.
// It exits when the context is cancelled or the channel is closed.
func forwardLogs(ctx context.Context, p *tea.Program, ch <-chan []domain.LogEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case entries, ok := <-ch:
			if !ok {
				return
			}
			p.Send(LogsMsg(entries))
		}
	}
}

// forwardSamples forwards window snapshots to the program
func forwardSamples(ctx context.Context, p *tea.Program, ch <-chan series.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			p.Send(SamplesMsg(snap))
		}
	}
}
