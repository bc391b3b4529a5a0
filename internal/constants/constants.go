// Package constants provides shared configuration values used across the poolwatch application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "poolwatch.yaml"

	// EnvPrefix prefixes environment variables that override configuration
	EnvPrefix = "POOLWATCH_"
)

// Backend endpoints
const (
	// DefaultAPIBaseURL is the base URL of the ticket-pool Control API
	DefaultAPIBaseURL = "http://localhost:8080/api/ticket-pool"

	// DefaultStreamEndpoint is the raw WebSocket endpoint of the log broker
	DefaultStreamEndpoint = "ws://localhost:8080/ws-logs/websocket"

	// DefaultSSEEndpoint is the server-sent events log endpoint used as fallback
	DefaultSSEEndpoint = "http://localhost:8080/api/ticket-pool/logs"

	// DefaultLogTopic is the broker topic the server publishes log lines to
	DefaultLogTopic = "/topic/logs"

	// DefaultTransport selects STOMP first and falls back to SSE
	DefaultTransport = "auto"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for Control API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultReconnectDelay is the fixed backoff before a reconnection attempt
	DefaultReconnectDelay = 5 * time.Second

	// DefaultSampleInterval is the pool size polling interval
	DefaultSampleInterval = 2 * time.Second

	// DefaultHandshakeTimeout bounds the transport handshake
	DefaultHandshakeTimeout = 10 * time.Second
)

// Window and buffer sizes
const (
	// DefaultWindowCapacity is the number of samples kept for the chart
	DefaultWindowCapacity = 20

	// DefaultChartWidth and DefaultChartHeight size the rendered chart
	DefaultChartWidth  = 1024
	DefaultChartHeight = 400

	// MaxDashboardLogLines caps the lines the dashboard renders at once
	MaxDashboardLogLines = 1000

	// ScannerBufferSize is the initial buffer size for SSE line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for SSE line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB
)

// Pool configuration defaults, matching the backend form defaults
const (
	DefaultMaxTicketCapacity           = 200
	DefaultTotalTickets                = 100
	DefaultTicketReleaseRate           = 5
	DefaultCustomerTicketRetrievalRate = 1
	DefaultVendorCount                 = 1
	DefaultConsumerCount               = 1
)

// SampleLabelLayout formats sample time labels
const SampleLabelLayout = "15:04:05"

// ANSI color codes for terminal output
var (
	// ColorDim is used for timestamps and sequence numbers
	ColorDim = "\033[90m"

	// ColorReset resets the terminal color
	ColorReset = "\033[0m"

	// ColorBrightRed is used for diagnostics
	ColorBrightRed = "\033[91m"
)
