package jobs

import (
	"context"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
)

type JobService interface {
	CreateJob(ctx context.Context, job *models.ExtractionJob) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error)
	ListJobs(ctx context.Context, filters JobFilters) ([]*models.ExtractionJob, error)

	MarkQueued(ctx context.Context, id uuid.UUID, providerHandle string) error
	MarkRunning(ctx context.Context, id uuid.UUID, scrapedCount int) error
	MarkSucceeded(ctx context.Context, id uuid.UUID, scrapedCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	SetResultRef(ctx context.Context, id uuid.UUID, resultRef string) error
	TouchJob(ctx context.Context, id uuid.UUID) error

	ListReconcilable(ctx context.Context) ([]*models.ExtractionJob, error)
	ListAwaitingResult(ctx context.Context) ([]*models.ExtractionJob, error)
}
