package domain

import "time"

// ConnectionState represents the lifecycle of the log stream subscription.
// Messages are only accepted while Connected.
type ConnectionState int

const (
	// StateDisconnected means no session is open (a retry may be pending)
	StateDisconnected ConnectionState = iota
	// StateConnecting means a dial and subscription handshake is in flight
	StateConnecting
	// StateConnected means the subscription is live and delivering lines
	StateConnected
)

// String returns the string representation of ConnectionState
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// SamplingState represents whether the pool size poller is active
type SamplingState int

const (
	SamplingIdle SamplingState = iota
	SamplingRunning
)

// String returns the string representation of SamplingState
func (s SamplingState) String() string {
	switch s {
	case SamplingIdle:
		return "idle"
	case SamplingRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ConnectionStatus is a point-in-time view of the subscriber
type ConnectionStatus struct {
	State     ConnectionState
	Since     time.Time // when State was entered
	Attempts  int       // dial attempts since the last successful handshake
	LastError error     // most recent transport or protocol error, nil if none
}

// SamplerStats counts what happened to each tick
type SamplerStats struct {
	State     SamplingState
	Ticks     int // ticks that issued a fetch
	Appended  int // fetches that produced a sample
	Failed    int // fetches that failed and were skipped
	Discarded int // results that arrived after stop
}
