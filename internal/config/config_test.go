package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/poolwatch/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poolwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://pool.internal:9090/api/ticket-pool
  timeout: 3s
stream:
  transport: stomp
  url: ws://pool.internal:9090/ws-logs/websocket
  topic: /topic/audit
  reconnect_delay: 1500ms
  handshake_timeout: 2s
sampler:
  interval: 500ms
  request_timeout: 250ms
  window: 40
chart:
  output: chart.png
  width: 800
  height: 300
pool:
  max_ticket_capacity: 50
  total_tickets: 10
  ticket_release_rate: 2
  customer_ticket_retrieval_rate: 3
  vendor_count: 4
  consumer_count: 6
log:
  level: debug
  file: poolwatch.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://pool.internal:9090/api/ticket-pool", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)

	assert.Equal(t, TransportStomp, cfg.Stream.Transport)
	assert.Equal(t, "ws://pool.internal:9090/ws-logs/websocket", cfg.Stream.URL)
	assert.Equal(t, "/topic/audit", cfg.Stream.Topic)
	assert.Equal(t, 1500*time.Millisecond, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 2*time.Second, cfg.Stream.HandshakeTimeout)

	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.RequestTimeout)
	assert.Equal(t, 40, cfg.Sampler.Window)

	assert.Equal(t, ChartConfig{Output: "chart.png", Width: 800, Height: 300}, cfg.Chart)

	assert.Equal(t, domain.PoolConfig{
		MaxTicketCapacity:           50,
		TotalTickets:                10,
		TicketReleaseRate:           2,
		CustomerTicketRetrievalRate: 3,
	}, cfg.Pool.PoolConfig)
	assert.Equal(t, domain.StartParams{VendorCount: 4, ConsumerCount: 6}, cfg.Pool.StartParams())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "poolwatch.log", cfg.Log.File)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	assert.True(t, IsNotFound(err))
}

func TestLoad_InsecurePermissions(t *testing.T) {
	path := writeConfig(t, "")
	require.NoError(t, os.Chmod(path, 0666))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}

func TestParse_DefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  base_url: http://example.com/api/ticket-pool\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/api/ticket-pool", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 2*time.Second, cfg.Sampler.Interval)
	assert.Equal(t, 20, cfg.Sampler.Window)
	assert.Equal(t, TransportAuto, cfg.Stream.Transport)
	assert.Equal(t, "/topic/logs", cfg.Stream.Topic)
	assert.Empty(t, cfg.Chart.Output)
}

func TestParse_RequestTimeoutFollowsInterval(t *testing.T) {
	cfg, err := Parse([]byte("sampler:\n  interval: 750ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Sampler.RequestTimeout)
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("stream:\n  reconnect_delay: soon\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "stream.reconnect_delay")
	assert.Contains(t, err.Error(), `"soon"`)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("api: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing yaml")
}

func TestParse_InvalidPool(t *testing.T) {
	_, err := Parse([]byte("pool:\n  max_ticket_capacity: 5\n  total_tickets: 10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "exceeds maxTicketCapacity")
}
