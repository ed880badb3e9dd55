// Package upstash verifies Upstash Redis REST credentials.
package upstash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sendwell/cloud-setup/pipeline"
)

// Client talks to one Upstash Redis REST endpoint.
type Client struct {
	restURL    string
	token      string
	httpClient *http.Client
}

var _ pipeline.CacheService = (*Client)(nil)

// NewClient creates an Upstash Redis REST client.
func NewClient(restURL, token string, timeout time.Duration) *Client {
	return &Client{
		restURL:    strings.TrimRight(restURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pingResponse struct {
	Result string `json:"result"`
}

// Ping issues a Redis PING over the REST API and expects PONG back.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL+"/ping", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("redis credentials rejected (status %d): %s", resp.StatusCode, string(raw))
	}

	var ping pingResponse
	if err := json.Unmarshal(raw, &ping); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if !strings.EqualFold(ping.Result, "PONG") {
		return fmt.Errorf("unexpected ping result %q", ping.Result)
	}
	return nil
}
