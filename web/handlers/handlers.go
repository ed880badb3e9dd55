// Package handlers provides HTTP request handlers for the setup API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sendwell/cloud-setup/app"
	"github.com/sendwell/cloud-setup/domain"
	"github.com/sendwell/cloud-setup/pipeline"
)

// GetVersion returns the server version.
func GetVersion() string {
	return app.Version
}

// Runner executes one setup run. Implemented by pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFactory builds a runner for one validated request and its stream.
type RunnerFactory func(req *domain.SetupRequest, stream *pipeline.Stream) Runner

// DefaultRunnerFactory wires the production orchestrator.
func DefaultRunnerFactory(req *domain.SetupRequest, stream *pipeline.Stream) Runner {
	return app.NewSetupRunner(req, stream)
}

// SetupHandler serves the provisioning endpoints.
type SetupHandler struct {
	enabled   bool
	newRunner RunnerFactory
}

// NewSetupHandler creates the handler. enabled gates POST /api/setup; a
// disabled server refuses new runs.
func NewSetupHandler(enabled bool, factory RunnerFactory) *SetupHandler {
	if factory == nil {
		factory = DefaultRunnerFactory
	}
	return &SetupHandler{enabled: enabled, newRunner: factory}
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// HandleSetup starts a provisioning run and streams its progress as SSE.
func (h *SetupHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	// The gate is checked before the body is read so a disabled server never
	// sees submitted credentials.
	if !h.enabled {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "setup is disabled on this server"})
		return
	}

	var req domain.SetupRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		LogOperationError("decode_request", "handlers", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fieldErrs,
		})
		return
	}

	stream := pipeline.NewStream()
	runner := h.newRunner(&req, stream)

	// The run must survive a dropped client connection, so it gets its own
	// context rather than the request's.
	go runner.Run(context.Background())

	SetupSSE(w)
	if err := StreamEvents(w, stream.Events()); err != nil {
		LogOperationError("stream_events", "handlers", err)
	}
}

// HandleListRuns returns the audit log of past runs, most recent first.
func (h *SetupHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := app.GetRunRepository().List()
	if err != nil {
		LogOperationError("list_runs", "handlers", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
		return
	}

	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = toRunView(run)
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleHealth reports server liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": GetVersion(),
	})
}

// runView is the wire form of a run record.
type runView struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	FailedStepID string  `json:"failed_step_id,omitempty"`
	ErrorSummary string  `json:"error_summary,omitempty"`
	ProjectID    string  `json:"project_id,omitempty"`
	TeamID       string  `json:"team_id,omitempty"`
	DatabaseRef  string  `json:"database_ref,omitempty"`
	StartedAt    string  `json:"started_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
}

func toRunView(run *domain.Run) runView {
	v := runView{
		ID:           run.ID.String(),
		Status:       run.Status.String(),
		FailedStepID: run.FailedStepID,
		ErrorSummary: run.ErrorSummary,
		ProjectID:    run.ProjectID,
		TeamID:       run.TeamID,
		DatabaseRef:  run.DatabaseRef,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.Format(time.RFC3339)
		v.FinishedAt = &finished
	}
	return v
}

// SetupSSE configures Server-Sent Events headers
func SetupSSE(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// StreamEvents writes each event as an SSE data frame until the stream
// closes. If the client goes away the channel is still drained so the
// producer never blocks.
func StreamEvents(w http.ResponseWriter, events <-chan domain.SetupEvent) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return errors.New("streaming not supported")
	}

	var writeErr error
	for ev := range events {
		if writeErr != nil {
			continue // drain
		}

		jsonMsg, err := json.Marshal(ev)
		if err != nil {
			writeErr = err
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonMsg); err != nil {
			writeErr = err
			continue
		}
		flusher.Flush()
	}
	return writeErr
}

// LogOperationError logs errors with consistent structure
func LogOperationError(operation, layer string, err error, fields ...any) {
	args := []any{"layer", layer, "operation", operation, "error", err}
	args = append(args, fields...)
	slog.Error("Operation failed", args...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response",
			"layer", "handlers",
			"error", err)
	}
}
