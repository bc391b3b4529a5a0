package domain

import "time"

// LogEntry is a single line received on the log topic
type LogEntry struct {
	Seq        uint64    `json:"seq"`
	Line       string    `json:"line"`
	ReceivedAt time.Time `json:"received_at"`
}

// LogFilter defines criteria for filtering log lines
type LogFilter struct {
	Pattern    string // Filter by pattern match
	IsRegex    bool   // If true, Pattern is a regex; otherwise substring match
	IgnoreCase bool
}

// IsEmpty returns true if no filters are set
func (f LogFilter) IsEmpty() bool {
	return f.Pattern == ""
}

// LogStats contains statistics about the log stream
type LogStats struct {
	TotalEntries int
	Observers    int
	LastSeq      uint64
}
