// Package control is the HTTP client for the ticket pool Control API.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// maxBodySize bounds how much of a response body is read
const maxBodySize = 1 << 20

// APIError is a response with status >= 400
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client is an HTTP client for the Control API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. A non-positive timeout uses the
// default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Initialize configures the ticket pool
func (c *Client) Initialize(ctx context.Context, cfg domain.PoolConfig) (string, error) {
	return c.post(ctx, "/initialize", poolQuery(cfg))
}

// Start starts vendor and consumer threads
func (c *Client) Start(ctx context.Context, params domain.StartParams) (string, error) {
	query := url.Values{}
	query.Set("vendorCount", strconv.Itoa(params.VendorCount))
	query.Set("consumerCount", strconv.Itoa(params.ConsumerCount))
	return c.post(ctx, "/start", query)
}

// Stop stops the simulation
func (c *Client) Stop(ctx context.Context) (string, error) {
	return c.post(ctx, "/stop", nil)
}

// Reset stops the simulation and empties the pool
func (c *Client) Reset(ctx context.Context) (string, error) {
	return c.post(ctx, "/reset", nil)
}

// Save stores the configuration on the backend
func (c *Client) Save(ctx context.Context, cfg domain.PoolConfig) (string, error) {
	return c.post(ctx, "/save", poolQuery(cfg))
}

// ClearLogs asks the backend to clear its logs
func (c *Client) ClearLogs(ctx context.Context) (string, error) {
	return c.post(ctx, "/clear-logs", nil)
}

// SendTestLog asks the backend to publish a test line on the log topic
func (c *Client) SendTestLog(ctx context.Context) (string, error) {
	return c.post(ctx, "/send-log", nil)
}

// Size returns the current number of tickets in the pool
func (c *Client) Size(ctx context.Context) (int, error) {
	body, err := c.do(ctx, http.MethodGet, "/size", nil)
	if err != nil {
		return 0, err
	}

	var size int
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &size); err != nil {
		return 0, fmt.Errorf("decoding pool size %q: %w", body, err)
	}
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrNegativeSize, size)
	}
	return size, nil
}

func poolQuery(cfg domain.PoolConfig) url.Values {
	query := url.Values{}
	query.Set("maxTicketCapacity", strconv.Itoa(cfg.MaxTicketCapacity))
	query.Set("totalTickets", strconv.Itoa(cfg.TotalTickets))
	query.Set("ticketReleaseRate", strconv.Itoa(cfg.TicketReleaseRate))
	query.Set("customerTicketRetrievalRate", strconv.Itoa(cfg.CustomerTicketRetrievalRate))
	return query
}

func (c *Client) post(ctx context.Context, path string, query url.Values) (string, error) {
	return c.do(ctx, http.MethodPost, path, query)
}

// do sends a request and returns the response body as text
func (c *Client) do(ctx context.Context, method, path string, query url.Values) (string, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return string(data), nil
}
