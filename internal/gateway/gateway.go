package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"leadharvest/internal/jobs"
	"leadharvest/internal/ledger"
	"leadharvest/internal/providers"
	"leadharvest/internal/validation"
	"leadharvest/pkg/models"

	"github.com/google/uuid"
)

// Gateway validates a submission, debits the credit ledger, persists the job
// and hands it to the matching provider adapter. The debit always precedes
// the adapter call; a failed submit is refunded with a second ledger entry,
// never by rolling back the first. No lock is held across the vendor call.
type Gateway struct {
	jobService      jobs.JobService
	ledgerService   ledger.Service
	registry        *providers.Registry
	providerTimeout time.Duration
}

func New(jobService jobs.JobService, ledgerService ledger.Service, registry *providers.Registry, providerTimeout time.Duration) *Gateway {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &Gateway{
		jobService:      jobService,
		ledgerService:   ledgerService,
		registry:        registry,
		providerTimeout: providerTimeout,
	}
}

// Validate applies the submission rules in order; the first violation wins.
func (g *Gateway) Validate(req *models.SubmitRequest) *validation.ValidationResult {
	result := validation.NewResult()

	// 1. Target and source must be present and known.
	if req.Target == "" {
		result.AddError("target", "", "target is required", "REQUIRED")
		return result
	}
	if !models.ValidSourceType(req.SourceType) {
		result.AddError("source_type", string(req.SourceType), "unknown source type", "INVALID_SOURCE")
		return result
	}
	if !models.ValidProvider(req.Provider) {
		result.AddError("provider", string(req.Provider), "unknown provider", "INVALID_PROVIDER")
		return result
	}

	adapter, err := g.registry.Get(req.Provider)
	if err != nil {
		result.AddError("provider", string(req.Provider), "provider is not configured", "PROVIDER_UNAVAILABLE")
		return result
	}

	// 2. Vendor-specific required fields, enforced inside the adapter.
	if err := adapter.Validate(req); err != nil {
		result.AddError("request", "", err.Error(), "PROVIDER_RULES")
		return result
	}

	// 3. Vendor lead floor.
	if req.MaxLeads < adapter.MinLeads() {
		result.AddError("max_leads", fmt.Sprintf("%d", req.MaxLeads),
			fmt.Sprintf("%s requires at least %d leads", adapter.Name(), adapter.MinLeads()), "BELOW_MINIMUM")
		return result
	}

	// 4. Collection type, when the vendor needs one.
	if adapter.RequiresCollectionType() {
		switch req.SourceType {
		case models.SourceHashtag, models.SourceFollowers, models.SourceFollowing:
		default:
			result.AddError("source_type", string(req.SourceType),
				"select hashtag, followers or following", "COLLECTION_TYPE_REQUIRED")
			return result
		}
	}

	// 5. Terms acceptance.
	if !req.TermsAccepted {
		result.AddError("terms_accepted", "false", "terms must be accepted", "TERMS_NOT_ACCEPTED")
		return result
	}

	return result
}

// Submit runs the full submission pipeline. When the adapter call fails the
// returned job is in state failed and the debit has been refunded; the error
// describes the vendor failure.
func (g *Gateway) Submit(ctx context.Context, userID uuid.UUID, req *models.SubmitRequest) (*models.ExtractionJob, error) {
	if result := g.Validate(req); !result.Valid {
		return nil, result.First()
	}

	adapter, err := g.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	// Price the job under the user's plan, then debit before anything else.
	quote, err := g.ledgerService.QuoteJobDebit(ctx, userID, req.MaxLeads)
	if err != nil {
		return nil, err
	}

	debit, err := g.ledgerService.Debit(ctx, userID, quote, models.ReasonJobDebit)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientCredits) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to debit credits: %w", err)
	}

	job := &models.ExtractionJob{
		OwnerUserID: userID,
		Provider:    req.Provider,
		SourceType:  req.SourceType,
		Target:      req.Target,
		MaxLeads:    req.MaxLeads,
		State:       models.StateCreated,
		Metadata: models.JSON{
			"debited_credits": quote,
			"debit_entry_id":  debit.ID.String(),
		},
	}
	if err := g.jobService.CreateJob(ctx, job); err != nil {
		// The job row never existed; give the credits back.
		g.refund(ctx, userID, quote)
		return nil, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	handle, err := adapter.Submit(submitCtx, req)
	if err != nil {
		// The job never entered the vendor's queue: fail it and refund the
		// exact debited amount as its own ledger entry.
		if markErr := g.jobService.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.Printf("Gateway.Submit: failed to mark job %s failed: %v", job.ID, markErr)
		}
		g.refund(ctx, userID, quote)

		failed, getErr := g.jobService.GetJob(ctx, job.ID)
		if getErr != nil {
			failed = job
		}
		return failed, err
	}

	if err := g.jobService.MarkQueued(ctx, job.ID, handle); err != nil {
		return nil, err
	}

	queued, err := g.jobService.GetJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("Gateway.Submit: job %s queued with %s (debited %d credits)", queued.ID, req.Provider, quote)
	return queued, nil
}

func (g *Gateway) refund(ctx context.Context, userID uuid.UUID, amount int) {
	if _, err := g.ledgerService.Credit(ctx, userID, amount, models.ReasonRefund, 0); err != nil {
		// A refund failure must be visible in the logs; the ledger replay
		// invariant makes it recoverable by ops.
		log.Printf("Gateway.refund: FAILED to refund %d credits to user %s: %v", amount, userID, err)
	}
}
