package qstash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/keys", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"current":"sig_abc","next":"sig_def"}`))
	}))
	defer server.Close()

	c := NewClient("tok", time.Second)
	c.baseURL = server.URL
	require.NoError(t, c.CheckAuth(context.Background()))
}

func TestCheckAuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("bad", time.Second)
	c.baseURL = server.URL

	err := c.CheckAuth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
