package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/charliek/poolwatch/internal/backendtest"
)

// buildBinary builds the poolwatch binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "poolwatch")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/poolwatch")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// writeConfig writes a config file pointing at the fake backend and
// returns its path
func writeConfig(t *testing.T, b *backendtest.Backend, transport string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "poolwatch.yaml")
	content := fmt.Sprintf(`api:
  base_url: %s
stream:
  transport: %s
  url: %s
  sse_url: %s
  reconnect_delay: 200ms
sampler:
  interval: 50ms
  request_timeout: 2s
`, b.APIBaseURL(), transport, b.StompURL(), b.SSEURL())

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runPoolwatch runs the binary to completion and returns stdout and stderr
func runPoolwatch(t *testing.T, ctx context.Context, binary string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = t.TempDir()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// waitFor polls cond until it holds or the timeout passes
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s did not happen within %v", what, timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
