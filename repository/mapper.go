// Package repository provides the data access layer for the setup audit log.
package repository

import (
	"log/slog"

	"github.com/sendwell/cloud-setup/db"
	"github.com/sendwell/cloud-setup/domain"
)

type RunMapper struct{}

func (m *RunMapper) ToDomain(r *db.RunModel) *domain.Run {
	status, err := domain.ParseRunStatus(r.Status)
	if err != nil {
		slog.Error("Invalid run status in database",
			"layer", "repository",
			"operation", "map_run",
			"run_id", r.ID,
			"status", r.Status)
		status = domain.RunStatusUnknown
	}

	return &domain.Run{
		ID:           r.ID,
		Status:       status,
		FailedStepID: stringValue(r.FailedStepID),
		ErrorSummary: stringValue(r.ErrorSummary),
		ProjectID:    stringValue(r.ProjectID),
		TeamID:       stringValue(r.TeamID),
		DatabaseRef:  stringValue(r.DatabaseRef),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

func (m *RunMapper) ToModel(r *domain.Run) *db.RunModel {
	return &db.RunModel{
		BaseModel:    db.BaseModel{ID: r.ID},
		Status:       r.Status.String(),
		FailedStepID: stringPtr(r.FailedStepID),
		ErrorSummary: stringPtr(r.ErrorSummary),
		ProjectID:    stringPtr(r.ProjectID),
		TeamID:       stringPtr(r.TeamID),
		DatabaseRef:  stringPtr(r.DatabaseRef),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
