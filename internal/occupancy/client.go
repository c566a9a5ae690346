package occupancy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
)

// Backend endpoint paths.
const (
	configPath = "/api/config"
	statusPath = "/api/status"
)

const (
	defaultRequestTimeout = 900 * time.Millisecond
	maxBodyBytes          = 1 << 20
)

// Client fetches layout and status from the detection backend.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client.
//
// Parameters:
//   - cfg: Occupancy configuration from config.yaml
//
// Returns:
//   - *Client: Client ready for use. No request is made until a fetch.
func NewClient(cfg config.OccupancyConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BackendURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchLayout retrieves and decodes the slot layout.
//
// Transport failures and non-2xx answers wrap ErrBackendUnavailable;
// undecodable bodies wrap ErrInvalidLayout.
func (c *Client) FetchLayout(ctx context.Context) (Layout, error) {
	body, err := c.get(ctx, configPath)
	if err != nil {
		return Layout{}, err
	}
	return ParseLayout(body)
}

// FetchStatus retrieves and decodes the current status string.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	body, err := c.get(ctx, statusPath)
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(body)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrBackendUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrBackendUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrBackendUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrBackendUnavailable, path, err)
	}
	return body, nil
}
