package tui

import (
	"fmt"
	"strings"

	"github.com/charliek/poolwatch/internal/series"
)

// Chart panel layout
const (
	chartRows        = 8
	chartPanelHeight = chartRows + 3 // title, bars, time axis, spacer
	axisWidth        = 6
	barWidth         = 2
)

// eighths are the partial block glyphs, from empty to full
var eighths = []rune(" ▁▂▃▄▅▆▇█")

// blockChart draws the window as vertical bars, oldest on the left, and
// returns exactly chartPanelHeight lines. Samples that do not fit the
// width are dropped from the left.
func blockChart(snap series.Snapshot, width int) []string {
	lines := make([]string, 0, chartPanelHeight)

	last, ok := snap.Last()
	if !ok {
		lines = append(lines, "Pool size", dimStyle.Render("waiting for samples..."))
		return pad(lines)
	}

	fit := (width - axisWidth) / (barWidth + 1)
	if fit < 1 {
		fit = 1
	}
	if len(snap) > fit {
		snap = snap[len(snap)-fit:]
	}

	top := snap.Max()
	if top == 0 {
		top = 1
	}

	lines = append(lines, fmt.Sprintf("Pool size %s  %s",
		barStyle.Render(fmt.Sprintf("%d", last.Value)),
		dimStyle.Render(fmt.Sprintf("max %d", snap.Max()))))

	for row := chartRows - 1; row >= 0; row-- {
		label := ""
		switch row {
		case chartRows - 1:
			label = fmt.Sprintf("%d", top)
		case 0:
			label = "0"
		}

		var sb strings.Builder
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%*s │", axisWidth-2, label)))
		for _, s := range snap {
			fill := s.Value*chartRows*8/top - row*8
			fill = max(0, min(fill, 8))
			sb.WriteString(barStyle.Render(strings.Repeat(string(eighths[fill]), barWidth)))
			sb.WriteByte(' ')
		}
		lines = append(lines, sb.String())
	}

	lines = append(lines, dimStyle.Render(timeAxis(snap[0].Label, last.Label, len(snap), width)))

	return pad(lines)
}

// timeAxis labels the oldest and newest bars. The newest label sits under
// its bar when there is room, otherwise right after the oldest one. When
// only one label fits the width, it is the newest.
func timeAxis(first, last string, bars, width int) string {
	indent := strings.Repeat(" ", axisWidth)
	if bars == 1 || first == last {
		return indent + last
	}
	if axisWidth+len(first)+1+len(last) > width {
		return indent + last
	}
	gap := bars*(barWidth+1) - len(first) - len(last) - 1
	gap = max(gap, 1)
	return indent + first + strings.Repeat(" ", gap) + last
}

func pad(lines []string) []string {
	for len(lines) < chartPanelHeight {
		lines = append(lines, "")
	}
	return lines
}
