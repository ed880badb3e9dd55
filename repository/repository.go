package repository

import (
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sendwell/cloud-setup/db"
	"github.com/sendwell/cloud-setup/domain"
)

type RunRepository interface {
	FindByID(id uuid.UUID) (*domain.Run, error)
	Create(run *domain.Run) error
	Update(run *domain.Run) error
	List() ([]*domain.Run, error)
}

type runRepository struct {
	db     *gorm.DB
	mapper *RunMapper
}

func NewRunRepository(database *gorm.DB) RunRepository {
	return &runRepository{
		db:     database,
		mapper: &RunMapper{},
	}
}

func (r *runRepository) FindByID(id uuid.UUID) (*domain.Run, error) {
	var m db.RunModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "find_run",
			"run_id", id,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *runRepository) Create(run *domain.Run) error {
	m := r.mapper.ToModel(run)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_run",
			"run_id", run.ID,
			"error", err)
		return err
	}
	return nil
}

func (r *runRepository) Update(run *domain.Run) error {
	m := r.mapper.ToModel(run)

	// Select("*") so clearing a field back to NULL actually updates the row.
	// CreatedAt is never touched after initial creation.
	err := r.db.Model(&db.RunModel{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("created_at").
		Updates(m).
		Error
	if err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_run",
			"run_id", run.ID,
			"error", err)
	}
	return err
}

func (r *runRepository) List() ([]*domain.Run, error) {
	var models []db.RunModel
	if err := r.db.Order("started_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	runs := make([]*domain.Run, len(models))
	for i, m := range models {
		runs[i] = r.mapper.ToDomain(&m)
	}
	return runs, nil
}
