// Package db provides database models and utilities for the setup audit log.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RunModel is the persisted audit record of a setup run. Credentials and
// connection strings never land here, only identifiers and outcomes.
type RunModel struct {
	BaseModel
	Status       string `gorm:"not null;check:status <> ''"` // running, completed, failed
	FailedStepID *string
	ErrorSummary *string `gorm:"type:text"`
	ProjectID    *string
	TeamID       *string
	DatabaseRef  *string
	StartedAt    time.Time `gorm:"not null"`
	FinishedAt   *time.Time
}

func (RunModel) TableName() string {
	return "runs"
}

// AllModels returns all the models that need to be migrated.
func AllModels() []any {
	return []any{
		&RunModel{},
	}
}
