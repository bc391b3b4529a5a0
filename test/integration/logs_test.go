package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charliek/poolwatch/internal/backendtest"
)

func TestLogsFollow(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)

	tests := []struct {
		transport string
		connected func(b *backendtest.Backend) bool
	}{
		{"stomp", func(b *backendtest.Backend) bool { return b.StompSubscribers() == 1 }},
		{"sse", func(b *backendtest.Backend) bool { return b.SSEClients() == 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			b := backendtest.Start(t)
			cfg := writeConfig(t, b, tt.transport)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			type result struct {
				stdout, stderr string
				err            error
			}
			done := make(chan result, 1)
			go func() {
				stdout, stderr, err := runPoolwatch(t, ctx, binary, "logs", "-f", "-n", "2", "--config", cfg)
				done <- result{stdout, stderr, err}
			}()

			waitFor(t, 10*time.Second, "log subscription", func() bool { return tt.connected(b) })
			b.Publish("Vendor-1 added 5 tickets")
			b.Publish("Customer-1 bought a ticket")

			r := <-done
			if r.err != nil {
				t.Fatalf("poolwatch logs failed: %v\n%s", r.err, r.stderr)
			}
			lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
			if len(lines) != 2 {
				t.Fatalf("expected 2 lines, got %d: %q", len(lines), r.stdout)
			}
			if !strings.HasSuffix(lines[1], "| Customer-1 bought a ticket") {
				t.Errorf("unexpected line: %q", lines[1])
			}
		})
	}
}

func TestLogsReconnectAfterDrop(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	b := backendtest.Start(t)
	cfg := writeConfig(t, b, "stomp")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		stdout, _, _ := runPoolwatch(t, ctx, binary, "logs", "-f", "-n", "2", "--config", cfg)
		done <- stdout
	}()

	waitFor(t, 10*time.Second, "first subscription", func() bool { return b.StompSubscribers() == 1 })
	b.Publish("before drop")
	b.DropConnections()
	if n := b.StompConnections(); n != 0 {
		t.Fatalf("expected dropped connections to be forgotten, got %d", n)
	}

	waitFor(t, 10*time.Second, "resubscription", func() bool { return b.StompSubscribers() == 1 })
	b.Publish("after drop")

	stdout := <-done
	if !strings.Contains(stdout, "before drop") || !strings.Contains(stdout, "after drop") {
		t.Errorf("expected lines from both connections, got %q", stdout)
	}
}

func TestSampleTicks(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	b := backendtest.Start(t)
	b.SetSize(12)
	cfg := writeConfig(t, b, "stomp")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	stdout, stderr, err := runPoolwatch(t, ctx, binary, "sample", "--ticks", "2", "--config", cfg)
	if err != nil {
		t.Fatalf("poolwatch sample failed: %v\n%s", err, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 samples, got %q", stdout)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "  12") {
			t.Errorf("unexpected sample line: %q", line)
		}
	}
}
