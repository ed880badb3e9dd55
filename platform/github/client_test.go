package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/nacl/box"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSecretSealsValue(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var written map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/sendwell/actions/secrets/public-key":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"key_id": "key_1",
				"key":    base64.StdEncoding.EncodeToString(pub[:]),
			})
		case r.Method == http.MethodPut && r.URL.Path == "/repos/acme/sendwell/actions/secrets/DATABASE_URL":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&written))
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient("acme/sendwell", "ghp_tok", 5*time.Second)
	c.apiBaseURL = server.URL

	require.NoError(t, c.PutSecret(context.Background(), "DATABASE_URL", "postgres://secret"))
	assert.Equal(t, "key_1", written["key_id"])

	sealed, err := base64.StdEncoding.DecodeString(written["encrypted_value"])
	require.NoError(t, err)
	opened, ok := box.OpenAnonymous(nil, sealed, pub, priv)
	require.True(t, ok)
	assert.Equal(t, "postgres://secret", string(opened))
}

func TestPutSecretPublicKeyFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient("acme/sendwell", "ghp_tok", time.Second)
	c.apiBaseURL = server.URL

	err := c.PutSecret(context.Background(), "X", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public key")
}

func TestSealSecretRejectsBadKey(t *testing.T) {
	_, err := sealSecret("not-base64!!!", "value")
	require.Error(t, err)

	_, err = sealSecret(base64.StdEncoding.EncodeToString([]byte("short")), "value")
	require.Error(t, err)
}
