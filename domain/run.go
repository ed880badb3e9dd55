package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the final disposition of a setup run.
type RunStatus int

const (
	RunStatusUnknown RunStatus = iota
	RunStatusRunning
	RunStatusCompleted
	RunStatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusRunning:
		return "running"
	case RunStatusCompleted:
		return "completed"
	case RunStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func ParseRunStatus(s string) (RunStatus, error) {
	switch s {
	case "running":
		return RunStatusRunning, nil
	case "completed":
		return RunStatusCompleted, nil
	case "failed":
		return RunStatusFailed, nil
	case "unknown":
		return RunStatusUnknown, nil
	default:
		return RunStatusUnknown, fmt.Errorf("invalid run status: %q", s)
	}
}

// Run is the audit record of one setup run. It deliberately carries no
// tokens, passwords, or connection strings.
type Run struct {
	ID           uuid.UUID
	Status       RunStatus
	FailedStepID string
	ErrorSummary string
	ProjectID    string
	TeamID       string
	DatabaseRef  string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// NewRun creates a run record in the running state.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}
