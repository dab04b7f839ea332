// Package kittyapi provides the HTTP client for the CryptoKitties v3 API.
// All calls go through a circuit breaker so a failing upstream cannot
// cascade into every expansion in flight.
package kittyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scrypster/lineage/pkg/types"
)

// DefaultBaseURL is the public v3 API endpoint.
const DefaultBaseURL = "https://api.cryptokitties.co/v3"

// Client fetches kitty payloads over HTTP.
type Client struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the API base URL (default: DefaultBaseURL). Pointing it at
	// a CORS proxy or a test server works the same way.
	BaseURL string

	// Timeout is the per-request timeout (default: 20s).
	Timeout time.Duration
}

// NewClient creates an API client with the given configuration.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	return &Client{
		baseURL: config.BaseURL,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
	}
}

// FetchKitty retrieves the raw payload for a kitty, with the optional
// {"kitty": {...}} envelope already stripped. The returned error names the
// id so callers can surface it directly.
func (c *Client) FetchKitty(ctx context.Context, id int64) (types.RawKitty, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.fetchKitty(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("kittyapi: fetch kitty %d: %w", id, err)
	}
	return result.(types.RawKitty), nil
}

func (c *Client) fetchKitty(ctx context.Context, id int64) (types.RawKitty, error) {
	url := fmt.Sprintf("%s/kitties/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var raw types.RawKitty
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return types.UnwrapKitty(raw), nil
}

// BreakerState exposes the circuit breaker state for stats reporting.
func (c *Client) BreakerState() string {
	return c.circuitBreaker.State()
}
