package reconciler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"leadharvest/internal/jobs"
	"leadharvest/internal/providers"
	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Archiver persists a copy of a finished job's result manifest. Archival is
// best effort; the reconciler only logs when it fails.
type Archiver interface {
	ArchiveResult(ctx context.Context, job *models.ExtractionJob, downloadURL string) error
}

// Reconciler owns the two background sweeps that drive jobs to completion:
// a status sweep over every non-terminal job with a provider handle, and a
// slower result sweep that fetches download URLs for succeeded jobs.
//
// Each job is reconciled in its own goroutine so one stuck vendor cannot
// stall the sweep. An in-flight marker guarantees at most one reconcile per
// job across overlapping sweeps.
type Reconciler struct {
	jobService     jobs.JobService
	registry       *providers.Registry
	archiver       Archiver
	statusInterval time.Duration
	resultInterval time.Duration
	tracer         trace.Tracer

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(jobService jobs.JobService, registry *providers.Registry, archiver Archiver, statusInterval, resultInterval time.Duration) *Reconciler {
	if statusInterval <= 0 {
		statusInterval = 30 * time.Second
	}
	if resultInterval <= 0 {
		resultInterval = 600 * time.Second
	}
	return &Reconciler{
		jobService:     jobService,
		registry:       registry,
		archiver:       archiver,
		statusInterval: statusInterval,
		resultInterval: resultInterval,
		tracer:         otel.Tracer("leadharvest/reconciler"),
		inFlight:       make(map[uuid.UUID]struct{}),
		stopCh:         make(chan struct{}),
	}
}

// Start launches both sweep loops. They run until Stop is called or the
// context is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(2)

	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.statusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.StatusSweep(ctx)
			}
		}
	}()

	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.resultInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.ResultSweep(ctx)
			}
		}
	}()

	log.Printf("Reconciler: started (status every %s, results every %s)", r.statusInterval, r.resultInterval)
}

// Stop signals both loops and waits for in-progress reconciles to finish.
func (r *Reconciler) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	log.Printf("Reconciler: stopped")
}

// StatusSweep reconciles every queued or running job that has a provider
// handle. It returns once every per-job goroutine has finished.
func (r *Reconciler) StatusSweep(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.StatusSweep")
	defer span.End()

	jobList, err := r.jobService.ListReconcilable(ctx)
	if err != nil {
		span.RecordError(err)
		log.Printf("Reconciler.StatusSweep: failed to list jobs: %v", err)
		return
	}
	if len(jobList) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, job := range jobList {
		if !r.acquire(job.ID) {
			continue
		}
		wg.Add(1)
		go func(job *models.ExtractionJob) {
			defer wg.Done()
			defer r.release(job.ID)
			defer r.recoverJob(job.ID)
			r.reconcileJob(ctx, job)
		}(job)
	}
	wg.Wait()
}

// ResultSweep fetches download URLs for succeeded jobs that have no result
// reference yet.
func (r *Reconciler) ResultSweep(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.ResultSweep")
	defer span.End()

	jobList, err := r.jobService.ListAwaitingResult(ctx)
	if err != nil {
		span.RecordError(err)
		log.Printf("Reconciler.ResultSweep: failed to list jobs: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, job := range jobList {
		if !r.acquire(job.ID) {
			continue
		}
		wg.Add(1)
		go func(job *models.ExtractionJob) {
			defer wg.Done()
			defer r.release(job.ID)
			defer r.recoverJob(job.ID)
			r.fetchResult(ctx, job)
		}(job)
	}
	wg.Wait()
}

// reconcileJob queries the vendor once and applies the outcome. Transient
// vendor errors only touch updated_at; the job stays eligible for the next
// sweep. The forward-only transition rules make a stale status harmless.
func (r *Reconciler) reconcileJob(ctx context.Context, job *models.ExtractionJob) {
	adapter, err := r.registry.Get(job.Provider)
	if err != nil {
		log.Printf("Reconciler: job %s references unconfigured provider %s", job.ID, job.Provider)
		return
	}

	status, err := adapter.QueryStatus(ctx, job.ProviderJobHandle)
	if err != nil {
		var transient *providers.TransientError
		if errors.As(err, &transient) {
			if touchErr := r.jobService.TouchJob(ctx, job.ID); touchErr != nil {
				log.Printf("Reconciler: failed to touch job %s: %v", job.ID, touchErr)
			}
			return
		}
		// Permanent vendor errors on a status poll fail the job with the
		// vendor's own message.
		if markErr := r.jobService.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.Printf("Reconciler: failed to fail job %s: %v", job.ID, markErr)
		}
		return
	}

	switch status.State {
	case models.StateQueued:
		if err := r.jobService.TouchJob(ctx, job.ID); err != nil {
			log.Printf("Reconciler: failed to touch job %s: %v", job.ID, err)
		}
	case models.StateRunning:
		if err := r.jobService.MarkRunning(ctx, job.ID, status.ScrapedCount); err != nil {
			log.Printf("Reconciler: failed to update job %s: %v", job.ID, err)
		}
	case models.StateSucceeded:
		if err := r.jobService.MarkSucceeded(ctx, job.ID, status.ScrapedCount); err != nil {
			log.Printf("Reconciler: failed to complete job %s: %v", job.ID, err)
			return
		}
		log.Printf("Reconciler: job %s succeeded with %d leads", job.ID, status.ScrapedCount)
	case models.StateFailed:
		msg := status.ErrorMessage
		if msg == "" {
			msg = "provider reported failure"
		}
		if err := r.jobService.MarkFailed(ctx, job.ID, msg); err != nil {
			log.Printf("Reconciler: failed to fail job %s: %v", job.ID, err)
			return
		}
		log.Printf("Reconciler: job %s failed at %s: %s", job.ID, job.Provider, msg)
	}
}

func (r *Reconciler) fetchResult(ctx context.Context, job *models.ExtractionJob) {
	adapter, err := r.registry.Get(job.Provider)
	if err != nil {
		log.Printf("Reconciler: job %s references unconfigured provider %s", job.ID, job.Provider)
		return
	}

	downloadURL, err := adapter.FetchResult(ctx, job.ProviderJobHandle)
	if err != nil {
		// Transient or not, the job stays in the result sweep until the URL
		// comes through.
		log.Printf("Reconciler: result for job %s not ready: %v", job.ID, err)
		return
	}

	if err := r.jobService.SetResultRef(ctx, job.ID, downloadURL); err != nil {
		log.Printf("Reconciler: failed to store result for job %s: %v", job.ID, err)
		return
	}
	log.Printf("Reconciler: stored result for job %s", job.ID)

	if r.archiver != nil {
		if err := r.archiver.ArchiveResult(ctx, job, downloadURL); err != nil {
			log.Printf("Reconciler: failed to archive result for job %s: %v", job.ID, err)
		}
	}
}

// acquire marks a job as being reconciled. It returns false when a previous
// sweep still owns the job.
func (r *Reconciler) acquire(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[id]; busy {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Reconciler) release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

// recoverJob keeps a panicking adapter from taking the whole sweep down.
func (r *Reconciler) recoverJob(id uuid.UUID) {
	if rec := recover(); rec != nil {
		log.Printf("Reconciler: panic while reconciling job %s: %v", id, rec)
	}
}
