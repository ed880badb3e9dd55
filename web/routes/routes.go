// Package routes provides HTTP route registration for the setup server.
package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sendwell/cloud-setup/metrics"
	"github.com/sendwell/cloud-setup/web/handlers"
)

// RegisterSetupRoutes registers the provisioning API routes
func RegisterSetupRoutes(r chi.Router, h *handlers.SetupHandler) {
	r.Route("/api/setup", func(r chi.Router) {
		r.Post("/", h.HandleSetup)
		r.Get("/runs", h.HandleListRuns)
	})
}

// RegisterUtilityRoutes registers health and metrics endpoints
func RegisterUtilityRoutes(r chi.Router) {
	r.Get("/health", handlers.HandleHealth)
	r.Handle("/metrics", metrics.Handler())
}
