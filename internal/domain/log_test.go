package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter LogFilter
		want   bool
	}{
		{
			name:   "empty filter",
			filter: LogFilter{},
			want:   true,
		},
		{
			name:   "regex flag alone",
			filter: LogFilter{IsRegex: true},
			want:   true,
		},
		{
			name:   "with pattern",
			filter: LogFilter{Pattern: "vendor"},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.IsEmpty())
		})
	}
}

func TestConnectionState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", ConnectionState(42).String())
}

func TestSamplingState_String(t *testing.T) {
	assert.Equal(t, "idle", SamplingIdle.String())
	assert.Equal(t, "running", SamplingRunning.String())
}
