package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sendwell/cloud-setup/web/handlers"
)

func newTestRouter(enabled bool) chi.Router {
	r := chi.NewRouter()
	RegisterSetupRoutes(r, handlers.NewSetupHandler(enabled, nil))
	RegisterUtilityRoutes(r)
	return r
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestMetricsRoute(t *testing.T) {
	r := newTestRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouteGateDisabled(t *testing.T) {
	r := newTestRouter(false)

	req := httptest.NewRequest(http.MethodPost, "/api/setup", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetupRouteMethodNotAllowed(t *testing.T) {
	r := newTestRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/api/setup", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
