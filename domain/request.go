// Package domain defines the core types of the setup service: the validated
// setup request, the fixed pipeline step table, run-scoped pipeline state,
// stream events, and the persisted run record.
package domain

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	minTokenLength    = 8
	minPasswordLength = 8
)

// AdminConfig is the administrator account to bootstrap in the product
// database.
type AdminConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GitHubConfig identifies the product source repository and a token that can
// read it and write Actions secrets.
type GitHubConfig struct {
	Repo  string `json:"repo"` // "owner/name"
	Token string `json:"token"`
}

// VercelConfig holds the deployment platform token.
type VercelConfig struct {
	Token string `json:"token"`
}

// SupabaseConfig holds the database platform access token.
type SupabaseConfig struct {
	Token string `json:"token"`
}

// QStashConfig holds the queue service token.
type QStashConfig struct {
	Token string `json:"token"`
}

// UpstashConfig holds the cache REST endpoint and its bearer token.
type UpstashConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// SetupRequest is the immutable input of one provisioning run. It is decoded
// and validated once per HTTP request and never mutated afterwards.
type SetupRequest struct {
	Admin    AdminConfig    `json:"admin"`
	GitHub   GitHubConfig   `json:"github"`
	Vercel   VercelConfig   `json:"vercel"`
	Supabase SupabaseConfig `json:"supabase"`
	QStash   QStashConfig   `json:"qstash"`
	Upstash  UpstashConfig  `json:"upstash"`
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every request group and returns one FieldError per invalid
// field. An empty slice means the request is acceptable for a run.
func (r *SetupRequest) Validate() []FieldError {
	var errs []FieldError

	if !strings.Contains(r.Admin.Email, "@") {
		errs = append(errs, FieldError{"admin.email", "must be a valid email address"})
	}
	if len(r.Admin.Password) < minPasswordLength {
		errs = append(errs, FieldError{"admin.password", fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}

	if owner, name, ok := strings.Cut(r.GitHub.Repo, "/"); !ok || owner == "" || name == "" {
		errs = append(errs, FieldError{"github.repo", "must be in owner/name form"})
	}
	if len(r.GitHub.Token) < minTokenLength {
		errs = append(errs, FieldError{"github.token", "is required"})
	}

	if len(r.Vercel.Token) < minTokenLength {
		errs = append(errs, FieldError{"vercel.token", "is required"})
	}
	if len(r.Supabase.Token) < minTokenLength {
		errs = append(errs, FieldError{"supabase.token", "is required"})
	}
	if len(r.QStash.Token) < minTokenLength {
		errs = append(errs, FieldError{"qstash.token", "is required"})
	}

	if u, err := url.Parse(r.Upstash.URL); err != nil || u.Scheme != "https" || u.Host == "" {
		errs = append(errs, FieldError{"upstash.url", "must be an https URL"})
	}
	if len(r.Upstash.Token) < minTokenLength {
		errs = append(errs, FieldError{"upstash.token", "is required"})
	}

	return errs
}

// RepoOwnerName splits the "owner/name" repo reference. Validate guarantees
// both parts are non-empty.
func (r *SetupRequest) RepoOwnerName() (string, string) {
	owner, name, _ := strings.Cut(r.GitHub.Repo, "/")
	return owner, name
}
