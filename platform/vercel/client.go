// Package vercel is a minimal Vercel API client covering what the setup
// pipeline needs: identity, project linking, environment variables, and
// deployments.
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sendwell/cloud-setup/pipeline"
)

const defaultBaseURL = "https://api.vercel.com"

// Client talks to the Vercel API with one token. A team id, once known, is
// attached to every request as required by the API.
type Client struct {
	token      string
	teamID     string
	baseURL    string
	httpClient *http.Client
}

var _ pipeline.DeployPlatform = (*Client)(nil)

// NewClient creates a Vercel API client.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

type teamsResponse struct {
	Teams []struct {
		ID string `json:"id"`
	} `json:"teams"`
}

// Whoami identifies the token's user and its first team, if any. The team id
// is remembered for subsequent calls.
func (c *Client) Whoami(ctx context.Context) (string, string, error) {
	var user userResponse
	if err := c.do(ctx, http.MethodGet, "/v2/user", nil, &user); err != nil {
		return "", "", fmt.Errorf("vercel token check: %w", err)
	}

	var teams teamsResponse
	if err := c.do(ctx, http.MethodGet, "/v2/teams", nil, &teams); err != nil {
		return "", "", fmt.Errorf("vercel teams lookup: %w", err)
	}
	if len(teams.Teams) > 0 {
		c.teamID = teams.Teams[0].ID
	}

	return user.User.ID, c.teamID, nil
}

type projectResponse struct {
	ID string `json:"id"`
}

// FindProject looks a project up by name. A 404 means not found, not an
// error.
func (c *Client) FindProject(ctx context.Context, name string) (string, bool, error) {
	var project projectResponse
	err := c.do(ctx, http.MethodGet, "/v9/projects/"+url.PathEscape(name), nil, &project)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("vercel project lookup: %w", err)
	}
	return project.ID, true, nil
}

// CreateProject creates a project linked to the given GitHub repository.
func (c *Client) CreateProject(ctx context.Context, name, repo string) (string, error) {
	body := map[string]any{
		"name":      name,
		"framework": "nextjs",
		"gitRepository": map[string]string{
			"type": "github",
			"repo": repo,
		},
	}

	var project projectResponse
	if err := c.do(ctx, http.MethodPost, "/v10/projects", body, &project); err != nil {
		return "", fmt.Errorf("vercel project create: %w", err)
	}
	return project.ID, nil
}

type envEntry struct {
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Type   string   `json:"type"`
	Target []string `json:"target"`
}

// UpsertEnv bulk-writes production environment variables.
func (c *Client) UpsertEnv(ctx context.Context, projectID string, vars []pipeline.EnvVar) error {
	entries := make([]envEntry, len(vars))
	for i, v := range vars {
		entryType := "plain"
		if v.Secret {
			entryType = "encrypted"
		}
		entries[i] = envEntry{
			Key:    v.Key,
			Value:  v.Value,
			Type:   entryType,
			Target: []string{"production", "preview"},
		}
	}

	path := fmt.Sprintf("/v10/projects/%s/env?upsert=true", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodPost, path, entries, nil); err != nil {
		return fmt.Errorf("vercel env upsert: %w", err)
	}
	return nil
}

type envListResponse struct {
	Envs []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"envs"`
}

// GetEnv reads back one environment variable by key.
func (c *Client) GetEnv(ctx context.Context, projectID, key string) (string, bool, error) {
	var list envListResponse
	path := fmt.Sprintf("/v9/projects/%s/env?decrypt=true", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return "", false, fmt.Errorf("vercel env read: %w", err)
	}
	for _, e := range list.Envs {
		if e.Key == key {
			return e.Value, true, nil
		}
	}
	return "", false, nil
}

type deploymentResponse struct {
	ID         string `json:"id"`
	ReadyState string `json:"readyState"`
}

// TriggerDeployment starts a production deployment from the repository's
// default branch.
func (c *Client) TriggerDeployment(ctx context.Context, projectID, repo string) (string, error) {
	body := map[string]any{
		"name":    projectID,
		"project": projectID,
		"target":  "production",
		"gitSource": map[string]string{
			"type": "github",
			"repo": repo,
		},
	}

	var deployment deploymentResponse
	if err := c.do(ctx, http.MethodPost, "/v13/deployments", body, &deployment); err != nil {
		return "", fmt.Errorf("vercel deployment trigger: %w", err)
	}
	return deployment.ID, nil
}

// DeploymentState returns the deployment's readyState.
func (c *Client) DeploymentState(ctx context.Context, deploymentID string) (string, error) {
	var deployment deploymentResponse
	path := "/v13/deployments/" + url.PathEscape(deploymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &deployment); err != nil {
		return "", fmt.Errorf("vercel deployment status: %w", err)
	}
	return deployment.ReadyState, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("vercel API error (status %d): %s", e.status, e.body)
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

	u := c.baseURL + path
	if c.teamID != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "teamId=" + url.QueryEscape(c.teamID)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
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
