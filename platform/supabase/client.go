// Package supabase is a minimal Supabase management API client covering
// project provisioning, readiness, and credential resolution.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sendwell/cloud-setup/pipeline"
)

const defaultBaseURL = "https://api.supabase.com"

// defaultRegion is where new database projects are created.
const defaultRegion = "eu-west-1"

// Client talks to the Supabase management API with one access token.
type Client struct {
	token      string
	region     string
	orgID      string
	baseURL    string
	httpClient *http.Client
}

var _ pipeline.DatabasePlatform = (*Client)(nil)

// NewClient creates a Supabase management API client.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:      token,
		region:     defaultRegion,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CheckAuth verifies the token by listing organizations. The first
// organization id is remembered for project creation.
func (c *Client) CheckAuth(ctx context.Context) error {
	var orgs []organization
	if err := c.do(ctx, http.MethodGet, "/v1/organizations", nil, &orgs); err != nil {
		return fmt.Errorf("supabase token check: %w", err)
	}
	if len(orgs) == 0 {
		return fmt.Errorf("supabase token has no organizations")
	}
	c.orgID = orgs[0].ID
	return nil
}

type project struct {
	ID     string `json:"id"`
	Ref    string `json:"ref"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ListProjectNames returns the names of all projects visible to the token.
func (c *Client) ListProjectNames(ctx context.Context) ([]string, error) {
	var projects []project
	if err := c.do(ctx, http.MethodGet, "/v1/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("supabase project list: %w", err)
	}
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return names, nil
}

// CreateProject creates a database project and returns its reference. A 409
// from the API is reported as pipeline.ErrNameTaken.
func (c *Client) CreateProject(ctx context.Context, name, dbPassword string) (string, error) {
	body := map[string]string{
		"name":            name,
		"organization_id": c.orgID,
		"db_pass":         dbPassword,
		"region":          c.region,
	}

	var created project
	err := c.do(ctx, http.MethodPost, "/v1/projects", body, &created)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusConflict {
			return "", fmt.Errorf("project %q: %w", name, pipeline.ErrNameTaken)
		}
		return "", fmt.Errorf("supabase project create: %w", err)
	}
	return created.Ref, nil
}

// ProjectStatus returns the platform status string for a project, e.g.
// COMING_UP or ACTIVE_HEALTHY.
func (c *Client) ProjectStatus(ctx context.Context, ref string) (string, error) {
	var p project
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(ref), nil, &p); err != nil {
		return "", fmt.Errorf("supabase project status: %w", err)
	}
	return p.Status, nil
}

type apiKey struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// APIKeys resolves the project's anon and service_role keys.
func (c *Client) APIKeys(ctx context.Context, ref string) (string, string, error) {
	var keys []apiKey
	path := fmt.Sprintf("/v1/projects/%s/api-keys", url.PathEscape(ref))
	if err := c.do(ctx, http.MethodGet, path, nil, &keys); err != nil {
		return "", "", fmt.Errorf("supabase api keys: %w", err)
	}

	var anon, serviceRole string
	for _, k := range keys {
		switch k.Name {
		case "anon":
			anon = k.APIKey
		case "service_role":
			serviceRole = k.APIKey
		}
	}
	if anon == "" || serviceRole == "" {
		return "", "", fmt.Errorf("supabase api keys incomplete for project %s", ref)
	}
	return anon, serviceRole, nil
}

type poolerConfig struct {
	DBHost string `json:"db_host"`
}

// PoolerHost resolves the connection pooler hostname for a project.
func (c *Client) PoolerHost(ctx context.Context, ref string) (string, error) {
	var cfg poolerConfig
	path := fmt.Sprintf("/v1/projects/%s/config/database/pooler", url.PathEscape(ref))
	if err := c.do(ctx, http.MethodGet, path, nil, &cfg); err != nil {
		return "", fmt.Errorf("supabase pooler config: %w", err)
	}
	return cfg.DBHost, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("supabase API error (status %d): %s", e.status, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{status: resp.StatusCode, body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
