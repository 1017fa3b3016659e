package jobs

import (
	"context"
	"errors"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when a state update matched no row, either
// because the job does not exist or because the requested transition would
// move the lifecycle backwards.
var ErrInvalidTransition = errors.New("job not found or transition not allowed")

type JobRepository interface {
	Create(ctx context.Context, job *models.ExtractionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error)
	List(ctx context.Context, filters JobFilters) ([]*models.ExtractionJob, error)

	// Transition applies updates only when the job is currently in one of the
	// from states, making every state change forward-only and idempotent under
	// concurrent sweeps.
	Transition(ctx context.Context, id uuid.UUID, from []models.JobState, updates map[string]interface{}) error

	// Touch advances updated_at without changing anything else. Used when a
	// poll hit a transient vendor error.
	Touch(ctx context.Context, id uuid.UUID) error

	ListReconcilable(ctx context.Context) ([]*models.ExtractionJob, error)
	ListAwaitingResult(ctx context.Context) ([]*models.ExtractionJob, error)
}

type JobFilters struct {
	OwnerUserID *uuid.UUID
	State       string
	Limit       int
	Offset      int
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.ExtractionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error) {
	var job models.ExtractionJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, filters JobFilters) ([]*models.ExtractionJob, error) {
	var jobs []*models.ExtractionJob

	query := r.db.WithContext(ctx).Model(&models.ExtractionJob{})

	if filters.OwnerUserID != nil {
		query = query.Where("owner_user_id = ?", *filters.OwnerUserID)
	}

	if filters.State != "" {
		query = query.Where("state = ?", filters.State)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	query = query.Order("created_at DESC")

	err := query.Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) Transition(ctx context.Context, id uuid.UUID, from []models.JobState, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.ExtractionJob{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *jobRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ExtractionJob{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *jobRepository) ListReconcilable(ctx context.Context) ([]*models.ExtractionJob, error) {
	var jobs []*models.ExtractionJob
	err := r.db.WithContext(ctx).
		Where("state IN ? AND provider_job_handle <> ''",
			[]models.JobState{models.StateQueued, models.StateRunning}).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) ListAwaitingResult(ctx context.Context) ([]*models.ExtractionJob, error) {
	var jobs []*models.ExtractionJob
	err := r.db.WithContext(ctx).
		Where("state = ? AND (result_ref = '' OR result_ref IS NULL)", models.StateSucceeded).
		Order("completed_at ASC").
		Find(&jobs).Error
	return jobs, err
}
