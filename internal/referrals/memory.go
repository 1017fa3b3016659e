package referrals

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
)

// memoryRepository is the test double for ReferralRepository.
type memoryRepository struct {
	mu       sync.Mutex
	earnings []*models.ReferralEarning
	bySource map[uuid.UUID]bool
}

func NewMemoryRepository() ReferralRepository {
	return &memoryRepository{bySource: make(map[uuid.UUID]bool)}
}

func (r *memoryRepository) CreateEarning(ctx context.Context, earning *models.ReferralEarning) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bySource[earning.SourcePurchaseEntryID] {
		return nil // same semantics as ON CONFLICT DO NOTHING
	}
	if earning.ID == uuid.Nil {
		earning.ID = uuid.New()
	}
	if earning.CreatedAt.IsZero() {
		earning.CreatedAt = time.Now()
	}
	clone := *earning
	r.earnings = append(r.earnings, &clone)
	r.bySource[earning.SourcePurchaseEntryID] = true
	return nil
}

func (r *memoryRepository) MatureBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var promoted int64
	now := time.Now()
	for _, e := range r.earnings {
		if e.Status == models.EarningPending && e.CreatedAt.Before(cutoff) {
			e.Status = models.EarningAvailable
			e.MaturedAt = &now
			promoted++
		}
	}
	return promoted, nil
}

func (r *memoryRepository) SummaryFor(ctx context.Context, referrerID uuid.UUID) (float64, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending, available, paid float64
	for _, e := range r.earnings {
		if e.ReferrerID != referrerID {
			continue
		}
		switch e.Status {
		case models.EarningPending:
			pending += e.AmountUSD
		case models.EarningAvailable:
			available += e.AmountUSD
		case models.EarningPaid:
			paid += e.AmountUSD
		}
	}
	return pending, available, paid, nil
}

func (r *memoryRepository) ListForReferrer(ctx context.Context, referrerID uuid.UUID) ([]*models.ReferralEarning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var earnings []*models.ReferralEarning
	for _, e := range r.earnings {
		if e.ReferrerID == referrerID {
			clone := *e
			earnings = append(earnings, &clone)
		}
	}
	sort.Slice(earnings, func(i, j int) bool { return earnings[i].CreatedAt.After(earnings[j].CreatedAt) })
	return earnings, nil
}

func (r *memoryRepository) MarkPaid(ctx context.Context, earningID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.earnings {
		if e.ID == earningID && e.Status == models.EarningAvailable {
			e.Status = models.EarningPaid
		}
	}
	return nil
}
