package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sendwell/cloud-setup/db"
	"github.com/sendwell/cloud-setup/domain"
)

func newTestRepository(t *testing.T) RunRepository {
	t.Helper()
	database, err := db.InitDatabase(db.DBConfig{Path: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(database))
	return NewRunRepository(database)
}

func TestRunRepositoryCreateAndFind(t *testing.T) {
	repo := newTestRepository(t)

	run := domain.NewRun()
	run.ProjectID = "prj_123"
	run.TeamID = "team_456"
	require.NoError(t, repo.Create(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, domain.RunStatusRunning, found.Status)
	assert.Equal(t, "prj_123", found.ProjectID)
	assert.Equal(t, "team_456", found.TeamID)
	assert.Empty(t, found.FailedStepID)
	assert.Nil(t, found.FinishedAt)
}

func TestRunRepositoryUpdate(t *testing.T) {
	repo := newTestRepository(t)

	run := domain.NewRun()
	require.NoError(t, repo.Create(run))

	finished := time.Now().UTC()
	run.Status = domain.RunStatusFailed
	run.FailedStepID = "database-create"
	run.ErrorSummary = "could not create the database project"
	run.FinishedAt = &finished
	require.NoError(t, repo.Update(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, found.Status)
	assert.Equal(t, "database-create", found.FailedStepID)
	assert.Equal(t, "could not create the database project", found.ErrorSummary)
	require.NotNil(t, found.FinishedAt)
	assert.WithinDuration(t, finished, *found.FinishedAt, time.Second)
}

func TestRunRepositoryList(t *testing.T) {
	repo := newTestRepository(t)

	first := domain.NewRun()
	first.StartedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(first))

	second := domain.NewRun()
	require.NoError(t, repo.Create(second))

	runs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Most recent first.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestRunRepositoryFindMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByID(domain.NewRun().ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
