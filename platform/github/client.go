// Package github covers the two repository-host operations the setup
// pipeline needs: verifying the repository is reachable with the given token,
// and writing Actions secrets.
package github

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/crypto/nacl/box"

	"github.com/sendwell/cloud-setup/pipeline"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultGitBaseURL = "https://github.com"
)

// Client operates on one repository with one token.
type Client struct {
	repo       string // "owner/name"
	token      string
	apiBaseURL string
	gitBaseURL string
	httpClient *http.Client
	gitTimeout time.Duration
}

var _ pipeline.RepoHost = (*Client)(nil)

// NewClient creates a GitHub client for the given "owner/name" repository.
func NewClient(repo, token string, timeout time.Duration) *Client {
	return &Client{
		repo:       repo,
		token:      token,
		apiBaseURL: defaultAPIBaseURL,
		gitBaseURL: defaultGitBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		gitTimeout: timeout,
	}
}

// CheckRepository verifies the repository exists and the token can read it,
// using git ls-remote rather than the REST API: it exercises the exact access
// path later used by the deployment platform's clone.
func (c *Client) CheckRepository(ctx context.Context) error {
	gitURL := fmt.Sprintf("%s/%s.git", c.gitBaseURL, c.repo)

	ctx, cancel := context.WithTimeout(ctx, c.gitTimeout)
	defer cancel()

	remote := git.NewRemote(nil, &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{gitURL},
	})

	_, err := remote.ListContext(ctx, &git.ListOptions{
		Auth: &githttp.BasicAuth{
			// GitHub ignores the username when a token is supplied.
			Username: "git",
			Password: c.token,
		},
	})
	if err != nil {
		return fmt.Errorf("repository %s is not accessible: %w", c.repo, err)
	}
	return nil
}

type publicKeyResponse struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"` // base64-encoded 32-byte NaCl public key
}

// PutSecret writes one Actions secret. The value is sealed with the
// repository's public key as the API requires.
func (c *Client) PutSecret(ctx context.Context, name, value string) error {
	var pub publicKeyResponse
	path := fmt.Sprintf("/repos/%s/actions/secrets/public-key", c.repo)
	if err := c.do(ctx, http.MethodGet, path, nil, &pub); err != nil {
		return fmt.Errorf("fetch repository public key: %w", err)
	}

	sealed, err := sealSecret(pub.Key, value)
	if err != nil {
		return fmt.Errorf("seal secret %s: %w", name, err)
	}

	body := map[string]string{
		"encrypted_value": sealed,
		"key_id":          pub.KeyID,
	}
	path = fmt.Sprintf("/repos/%s/actions/secrets/%s", c.repo, name)
	if err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	return nil
}

// sealSecret encrypts value for the given base64 public key using an
// anonymous NaCl sealed box and returns it base64-encoded.
func sealSecret(publicKeyB64, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("public key has %d bytes, want 32", len(raw))
	}

	var key [32]byte
	copy(key[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &key, rand.Reader)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
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

	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")

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
		return fmt.Errorf("github API error (status %d): %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
