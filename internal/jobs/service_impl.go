package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type jobServiceImpl struct {
	repo   JobRepository
	tracer trace.Tracer
}

func NewJobServiceImpl(repo JobRepository) JobService {
	return &jobServiceImpl{
		repo:   repo,
		tracer: otel.Tracer("leadharvest/jobs"),
	}
}

func (s *jobServiceImpl) CreateJob(ctx context.Context, job *models.ExtractionJob) error {
	ctx, span := s.tracer.Start(ctx, "JobService.CreateJob")
	defer span.End()

	if err := s.repo.Create(ctx, job); err != nil {
		span.RecordError(err)
		log.Printf("JobService.CreateJob: Failed to create job for user %s: %v", job.OwnerUserID, err)
		return fmt.Errorf("failed to create job: %w", err)
	}

	log.Printf("JobService.CreateJob: Job %s created (provider=%s, target=%s)", job.ID, job.Provider, job.Target)
	return nil
}

func (s *jobServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.GetJob")
	defer span.End()

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

func (s *jobServiceImpl) ListJobs(ctx context.Context, filters JobFilters) ([]*models.ExtractionJob, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.ListJobs")
	defer span.End()

	if filters.Limit <= 0 {
		filters.Limit = 100 // Default limit
	}

	jobs, err := s.repo.List(ctx, filters)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *jobServiceImpl) MarkQueued(ctx context.Context, id uuid.UUID, providerHandle string) error {
	ctx, span := s.tracer.Start(ctx, "JobService.MarkQueued")
	defer span.End()

	err := s.repo.Transition(ctx, id, []models.JobState{models.StateCreated}, map[string]interface{}{
		"state":               models.StateQueued,
		"provider_job_handle": providerHandle,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to queue job %s: %w", id, err)
	}

	log.Printf("JobService.MarkQueued: Job %s queued (handle=%s)", id, providerHandle)
	return nil
}

func (s *jobServiceImpl) MarkRunning(ctx context.Context, id uuid.UUID, scrapedCount int) error {
	ctx, span := s.tracer.Start(ctx, "JobService.MarkRunning")
	defer span.End()

	// running -> running is allowed so each sweep can refresh scraped_count.
	err := s.repo.Transition(ctx, id, []models.JobState{models.StateQueued, models.StateRunning}, map[string]interface{}{
		"state":         models.StateRunning,
		"scraped_count": scrapedCount,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job %s running: %w", id, err)
	}
	return nil
}

func (s *jobServiceImpl) MarkSucceeded(ctx context.Context, id uuid.UUID, scrapedCount int) error {
	ctx, span := s.tracer.Start(ctx, "JobService.MarkSucceeded")
	defer span.End()

	err := s.repo.Transition(ctx, id, []models.JobState{models.StateQueued, models.StateRunning}, map[string]interface{}{
		"state":         models.StateSucceeded,
		"scraped_count": scrapedCount,
		"completed_at":  time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job %s succeeded: %w", id, err)
	}

	log.Printf("JobService.MarkSucceeded: Job %s succeeded (%d leads)", id, scrapedCount)
	return nil
}

func (s *jobServiceImpl) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	ctx, span := s.tracer.Start(ctx, "JobService.MarkFailed")
	defer span.End()

	err := s.repo.Transition(ctx, id,
		[]models.JobState{models.StateCreated, models.StateQueued, models.StateRunning},
		map[string]interface{}{
			"state":        models.StateFailed,
			"error":        errorMsg,
			"completed_at": time.Now(),
		})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}

	log.Printf("JobService.MarkFailed: Job %s failed: %s", id, errorMsg)
	return nil
}

func (s *jobServiceImpl) SetResultRef(ctx context.Context, id uuid.UUID, resultRef string) error {
	ctx, span := s.tracer.Start(ctx, "JobService.SetResultRef")
	defer span.End()

	// result_ref is only ever set on a succeeded job, once.
	err := s.repo.Transition(ctx, id, []models.JobState{models.StateSucceeded}, map[string]interface{}{
		"result_ref": resultRef,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set result ref on job %s: %w", id, err)
	}

	log.Printf("JobService.SetResultRef: Job %s result materialized", id)
	return nil
}

func (s *jobServiceImpl) TouchJob(ctx context.Context, id uuid.UUID) error {
	return s.repo.Touch(ctx, id)
}

func (s *jobServiceImpl) ListReconcilable(ctx context.Context) ([]*models.ExtractionJob, error) {
	return s.repo.ListReconcilable(ctx)
}

func (s *jobServiceImpl) ListAwaitingResult(ctx context.Context) ([]*models.ExtractionJob, error) {
	return s.repo.ListAwaitingResult(ctx)
}
