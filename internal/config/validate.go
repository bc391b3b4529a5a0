package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charliek/poolwatch/internal/domain"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	if err := validateURL("api.base_url", config.API.BaseURL, "http", "https"); err != nil {
		errs = append(errs, err.Error())
	}
	if config.API.Timeout <= 0 {
		errs = append(errs, "api.timeout: must be positive")
	}

	switch config.Stream.Transport {
	case TransportAuto, TransportStomp, TransportSSE:
	default:
		errs = append(errs, fmt.Sprintf("stream.transport: must be one of auto, stomp, sse, got %q", config.Stream.Transport))
	}
	if config.Stream.Transport != TransportSSE {
		if err := validateURL("stream.url", config.Stream.URL, "ws", "wss"); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if config.Stream.Transport != TransportStomp {
		if err := validateURL("stream.sse_url", config.Stream.SSEURL, "http", "https"); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if !strings.HasPrefix(config.Stream.Topic, "/") {
		errs = append(errs, fmt.Sprintf("stream.topic: must start with '/', got %q", config.Stream.Topic))
	}
	if config.Stream.ReconnectDelay <= 0 {
		errs = append(errs, "stream.reconnect_delay: must be positive")
	}
	if config.Stream.HandshakeTimeout <= 0 {
		errs = append(errs, "stream.handshake_timeout: must be positive")
	}

	if config.Sampler.Interval <= 0 {
		errs = append(errs, "sampler.interval: must be positive")
	}
	if config.Sampler.RequestTimeout <= 0 {
		errs = append(errs, "sampler.request_timeout: must be positive")
	}
	if config.Sampler.Window < 1 {
		errs = append(errs, fmt.Sprintf("sampler.window: must be at least 1, got %d", config.Sampler.Window))
	}

	if config.Chart.Width < 0 || config.Chart.Height < 0 {
		errs = append(errs, "chart: width and height must not be negative")
	}

	if err := config.Pool.PoolConfig.Validate(); err != nil {
		errs = append(errs, "pool: "+strings.TrimPrefix(err.Error(), domain.ErrInvalidParams.Error()+": "))
	}
	if err := config.Pool.StartParams().Validate(); err != nil {
		errs = append(errs, "pool: "+strings.TrimPrefix(err.Error(), domain.ErrInvalidParams.Error()+": "))
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error, got %q", config.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, joinErrors(errs))
	}

	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be a %s URL, got %q", strings.Join(schemes, " or "), raw)}
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
