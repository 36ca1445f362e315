package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"fuel-dashboard-backend/config"
	"fuel-dashboard-backend/internal/model"
)

// ErrUnexpectedStatus is returned when a toggle answer is neither
// "started" nor "stopped".
var ErrUnexpectedStatus = errors.New("unexpected toggle status")

// Client talks to the fueling simulation server.
type Client struct {
	cfg    *config.UpstreamConfig
	client *http.Client
}

// NewClient creates a client for the configured upstream server.
func NewClient(cfg *config.UpstreamConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Upstream client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Toggle asks the upstream server to start or stop fueling and returns the
// resulting status.
func (c *Client) Toggle(ctx context.Context) (string, error) {
	var resp model.ToggleResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.TogglePath, []byte("{}"), &resp); err != nil {
		return "", err
	}
	switch resp.Status {
	case model.ToggleStarted, model.ToggleStopped:
		return resp.Status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnexpectedStatus, resp.Status)
	}
}

// Snapshot fetches the current simulation state.
func (c *Client) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.do(ctx, http.MethodGet, c.cfg.DataPath, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
