// Package qstash verifies QStash queue credentials.
package qstash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sendwell/cloud-setup/pipeline"
)

const defaultBaseURL = "https://qstash.upstash.io"

// Client talks to the QStash API with one token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

var _ pipeline.QueueService = (*Client)(nil)

// NewClient creates a QStash client.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckAuth introspects the token by fetching the account's signing keys. A
// non-success response means the token is unusable.
func (c *Client) CheckAuth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/keys", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qstash token check: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qstash token rejected (status %d): %s", resp.StatusCode, string(raw))
	}
	return nil
}
