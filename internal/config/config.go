package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// Transport names accepted by stream.transport
const (
	TransportAuto  = "auto"
	TransportStomp = "stomp"
	TransportSSE   = "sse"
)

// Config represents the top-level poolwatch configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Stream  StreamConfig  `yaml:"stream"`
	Sampler SamplerConfig `yaml:"sampler"`
	Chart   ChartConfig   `yaml:"chart"`
	Pool    PoolConfig    `yaml:"pool"`
	Log     LogConfig     `yaml:"log"`
	EnvFile string        `yaml:"env_file"`
}

// APIConfig defines the Control API endpoint
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StreamConfig defines the log stream subscription
type StreamConfig struct {
	Transport        string
	URL              string // STOMP WebSocket endpoint
	SSEURL           string
	Topic            string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// SamplerConfig defines pool size polling
type SamplerConfig struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	Window         int
}

// ChartConfig defines the chart file. An empty Output runs headless.
type ChartConfig struct {
	Output string `yaml:"output"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// PoolConfig holds the parameters sent to initialize, save and start
type PoolConfig struct {
	domain.PoolConfig `yaml:",inline"`
	VendorCount       int `yaml:"vendor_count"`
	ConsumerCount     int `yaml:"consumer_count"`
}

// StartParams returns the start request parameters
func (p PoolConfig) StartParams() domain.StartParams {
	return domain.StartParams{VendorCount: p.VendorCount, ConsumerCount: p.ConsumerCount}
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// rawConfig is used for initial YAML parsing; durations are strings so they
// can be written as "5s" or "1500ms"
type rawConfig struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Stream struct {
		Transport        string `yaml:"transport"`
		URL              string `yaml:"url"`
		SSEURL           string `yaml:"sse_url"`
		Topic            string `yaml:"topic"`
		ReconnectDelay   string `yaml:"reconnect_delay"`
		HandshakeTimeout string `yaml:"handshake_timeout"`
	} `yaml:"stream"`
	Sampler struct {
		Interval       string `yaml:"interval"`
		RequestTimeout string `yaml:"request_timeout"`
		Window         int    `yaml:"window"`
	} `yaml:"sampler"`
	Chart   ChartConfig `yaml:"chart"`
	Pool    PoolConfig  `yaml:"pool"`
	Log     LogConfig   `yaml:"log"`
	EnvFile string      `yaml:"env_file"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: constants.DefaultAPIBaseURL,
			Timeout: constants.DefaultRequestTimeout,
		},
		Stream: StreamConfig{
			Transport:        constants.DefaultTransport,
			URL:              constants.DefaultStreamEndpoint,
			SSEURL:           constants.DefaultSSEEndpoint,
			Topic:            constants.DefaultLogTopic,
			ReconnectDelay:   constants.DefaultReconnectDelay,
			HandshakeTimeout: constants.DefaultHandshakeTimeout,
		},
		Sampler: SamplerConfig{
			Interval:       constants.DefaultSampleInterval,
			RequestTimeout: constants.DefaultSampleInterval,
			Window:         constants.DefaultWindowCapacity,
		},
		Chart: ChartConfig{
			Width:  constants.DefaultChartWidth,
			Height: constants.DefaultChartHeight,
		},
		Pool: PoolConfig{
			PoolConfig: domain.PoolConfig{
				MaxTicketCapacity:           constants.DefaultMaxTicketCapacity,
				TotalTickets:                constants.DefaultTotalTickets,
				TicketReleaseRate:           constants.DefaultTicketReleaseRate,
				CustomerTicketRetrievalRate: constants.DefaultCustomerTicketRetrievalRate,
			},
			VendorCount:   constants.DefaultVendorCount,
			ConsumerCount: constants.DefaultConsumerCount,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes. Unset fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	config := Default()
	var errs []string

	duration := func(field, value string, dst *time.Duration) {
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", field, value))
			return
		}
		*dst = d
	}
	str := func(value string, dst *string) {
		if value != "" {
			*dst = value
		}
	}
	num := func(value int, dst *int) {
		if value != 0 {
			*dst = value
		}
	}

	str(raw.API.BaseURL, &config.API.BaseURL)
	duration("api.timeout", raw.API.Timeout, &config.API.Timeout)

	str(raw.Stream.Transport, &config.Stream.Transport)
	str(raw.Stream.URL, &config.Stream.URL)
	str(raw.Stream.SSEURL, &config.Stream.SSEURL)
	str(raw.Stream.Topic, &config.Stream.Topic)
	duration("stream.reconnect_delay", raw.Stream.ReconnectDelay, &config.Stream.ReconnectDelay)
	duration("stream.handshake_timeout", raw.Stream.HandshakeTimeout, &config.Stream.HandshakeTimeout)

	intervalSet := raw.Sampler.Interval != ""
	duration("sampler.interval", raw.Sampler.Interval, &config.Sampler.Interval)
	if intervalSet && raw.Sampler.RequestTimeout == "" {
		config.Sampler.RequestTimeout = config.Sampler.Interval
	}
	duration("sampler.request_timeout", raw.Sampler.RequestTimeout, &config.Sampler.RequestTimeout)
	num(raw.Sampler.Window, &config.Sampler.Window)

	str(raw.Chart.Output, &config.Chart.Output)
	num(raw.Chart.Width, &config.Chart.Width)
	num(raw.Chart.Height, &config.Chart.Height)

	num(raw.Pool.MaxTicketCapacity, &config.Pool.MaxTicketCapacity)
	num(raw.Pool.TotalTickets, &config.Pool.TotalTickets)
	num(raw.Pool.TicketReleaseRate, &config.Pool.TicketReleaseRate)
	num(raw.Pool.CustomerTicketRetrievalRate, &config.Pool.CustomerTicketRetrievalRate)
	num(raw.Pool.VendorCount, &config.Pool.VendorCount)
	num(raw.Pool.ConsumerCount, &config.Pool.ConsumerCount)

	str(raw.Log.Level, &config.Log.Level)
	str(raw.Log.File, &config.Log.File)
	config.EnvFile = raw.EnvFile

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, joinErrors(errs))
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}
