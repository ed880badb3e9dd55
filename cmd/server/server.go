// Package server implements the command that runs the setup HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/sendwell/cloud-setup/app"
	"github.com/sendwell/cloud-setup/config"
	"github.com/sendwell/cloud-setup/web/handlers"
	"github.com/sendwell/cloud-setup/web/routes"
)

const shutdownTimeout = 30 * time.Second

var cfg *config.Config

// SetConfig injects the configuration resolved by the root command.
func SetConfig(c *config.Config) {
	cfg = c
}

// NewCmdServer creates the command that runs the setup server
func NewCmdServer() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the setup server",
		Long:  "Starts the HTTP server that serves the setup wizard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	if err := app.InitializeWithConfig(cfg); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel)

	return startWebServer(ctx)
}

func startWebServer(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	setupHandler := handlers.NewSetupHandler(cfg.SetupEnabled, nil)
	routes.RegisterSetupRoutes(r, setupHandler)
	routes.RegisterUtilityRoutes(r)

	address := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:    address,
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "address", fmt.Sprintf("http://%s", address), "setup_enabled", cfg.SetupEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web server failed", "error", err)
		}
	}()

	<-ctx.Done()

	// In-flight setup runs keep going in their own goroutines; shutdown only
	// stops accepting new connections and drains open streams.
	slog.Info("Shutting down web server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}

	slog.Info("Web server stopped")
	return nil
}

// handleShutdown handles OS signals for graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutdown signal received")
	cancel()
}
