package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
	"github.com/charliek/poolwatch/internal/logs"
)

// LogPrinter prints new lines from successive log snapshots
type LogPrinter struct {
	w       io.Writer
	filter  *logs.Filter
	color   bool
	lastSeq uint64
	printed int
}

// NewLogPrinter creates a printer. Colors are used only when w is a
// terminal.
func NewLogPrinter(w io.Writer, filter *logs.Filter) *LogPrinter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &LogPrinter{w: w, filter: filter, color: color}
}

// PrintSnapshot prints the entries not seen before and returns how many
// were printed
func (lp *LogPrinter) PrintSnapshot(entries []domain.LogEntry) int {
	n := 0
	for _, entry := range entries {
		if entry.Seq <= lp.lastSeq {
			continue
		}
		lp.lastSeq = entry.Seq
		if lp.filter != nil && !lp.filter.Matches(entry) {
			continue
		}
		lp.PrintEntry(entry)
		n++
	}
	lp.printed += n
	return n
}

// Printed returns the total number of lines printed
func (lp *LogPrinter) Printed() int {
	return lp.printed
}

// PrintEntry prints a single entry
func (lp *LogPrinter) PrintEntry(entry domain.LogEntry) {
	ts := entry.ReceivedAt.Format(constants.SampleLabelLayout)
	if !lp.color {
		fmt.Fprintf(lp.w, "%s %5d | %s\n", ts, entry.Seq, entry.Line)
		return
	}

	lineColor := ""
	if strings.Contains(strings.ToLower(entry.Line), "error") {
		lineColor = constants.ColorBrightRed
	}
	fmt.Fprintf(lp.w, "%s%s %5d%s | %s%s%s\n",
		constants.ColorDim, ts, entry.Seq, constants.ColorReset,
		lineColor, entry.Line, constants.ColorReset)
}
