package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memoryRepository is a map-backed JobRepository with the same transition
// semantics as the Postgres one. Used by tests and local development without
// a database.
type memoryRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.ExtractionJob
}

func NewMemoryRepository() JobRepository {
	return &memoryRepository{jobs: make(map[uuid.UUID]*models.ExtractionJob)}
}

func (r *memoryRepository) Create(ctx context.Context, job *models.ExtractionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Metadata == nil {
		job.Metadata = models.JSON{}
	}

	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *job
	return &clone, nil
}

func (r *memoryRepository) List(ctx context.Context, filters JobFilters) ([]*models.ExtractionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*models.ExtractionJob
	for _, job := range r.jobs {
		if filters.OwnerUserID != nil && job.OwnerUserID != *filters.OwnerUserID {
			continue
		}
		if filters.State != "" && string(job.State) != filters.State {
			continue
		}
		clone := *job
		jobs = append(jobs, &clone)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })

	if filters.Offset > 0 && filters.Offset < len(jobs) {
		jobs = jobs[filters.Offset:]
	} else if filters.Offset >= len(jobs) {
		jobs = nil
	}
	if filters.Limit > 0 && len(jobs) > filters.Limit {
		jobs = jobs[:filters.Limit]
	}

	return jobs, nil
}

func (r *memoryRepository) Transition(ctx context.Context, id uuid.UUID, from []models.JobState, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrInvalidTransition
	}

	allowed := false
	for _, s := range from {
		if job.State == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	for field, value := range updates {
		switch field {
		case "state":
			job.State = value.(models.JobState)
		case "provider_job_handle":
			job.ProviderJobHandle = value.(string)
		case "scraped_count":
			job.ScrapedCount = value.(int)
		case "error":
			job.Error = value.(string)
		case "result_ref":
			job.ResultRef = value.(string)
		case "completed_at":
			t := value.(time.Time)
			job.CompletedAt = &t
		}
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepository) Touch(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok {
		job.UpdatedAt = time.Now()
	}
	return nil
}

func (r *memoryRepository) ListReconcilable(ctx context.Context) ([]*models.ExtractionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*models.ExtractionJob
	for _, job := range r.jobs {
		if (job.State == models.StateQueued || job.State == models.StateRunning) && job.ProviderJobHandle != "" {
			clone := *job
			jobs = append(jobs, &clone)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

func (r *memoryRepository) ListAwaitingResult(ctx context.Context) ([]*models.ExtractionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*models.ExtractionJob
	for _, job := range r.jobs {
		if job.State == models.StateSucceeded && job.ResultRef == "" {
			clone := *job
			jobs = append(jobs, &clone)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}
