package referrals

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
)

// Service derives referral earnings from referred users' purchases and keeps
// running totals per referrer. Payout execution itself is external; this only
// computes eligibility.
type Service struct {
	repo               ReferralRepository
	rate               float64
	maturation         time.Duration
	payoutThresholdUSD float64
}

func NewService(repo ReferralRepository, rate float64, maturation time.Duration, payoutThresholdUSD float64) *Service {
	return &Service{
		repo:               repo,
		rate:               rate,
		maturation:         maturation,
		payoutThresholdUSD: payoutThresholdUSD,
	}
}

// OnPurchase implements ledger.PurchaseListener. The earning amount is a
// fixed percentage of the purchase's USD value, frozen at creation time. A
// later rate change never reprices an existing row.
func (s *Service) OnPurchase(ctx context.Context, account *models.Account, entry *models.CreditLedgerEntry) {
	if account.ReferredBy == nil || entry.Reason != models.ReasonPurchase || entry.AmountUSD <= 0 {
		return
	}

	earning := &models.ReferralEarning{
		ReferrerID:            *account.ReferredBy,
		ReferredID:            account.UserID,
		SourcePurchaseEntryID: entry.ID,
		AmountUSD:             roundCents(entry.AmountUSD * s.rate),
		Status:                models.EarningPending,
	}

	if err := s.repo.CreateEarning(ctx, earning); err != nil {
		// The purchase itself already succeeded; an earning write failure is
		// logged and left to the next purchase or an ops replay.
		log.Printf("ReferralService.OnPurchase: failed to record earning for referrer %s: %v", earning.ReferrerID, err)
		return
	}

	log.Printf("ReferralService.OnPurchase: referrer %s earned $%.2f from purchase %s", earning.ReferrerID, earning.AmountUSD, entry.ID)
}

// MatureEarnings promotes pending earnings older than the maturation window.
func (s *Service) MatureEarnings(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.maturation)
	promoted, err := s.repo.MatureBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mature referral earnings: %w", err)
	}
	return promoted, nil
}

// Summary returns a referrer's totals by status plus payout eligibility.
func (s *Service) Summary(ctx context.Context, referrerID uuid.UUID) (*models.ReferralSummary, error) {
	pending, available, paid, err := s.repo.SummaryFor(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize earnings for %s: %w", referrerID, err)
	}

	return &models.ReferralSummary{
		PendingUSD:     pending,
		AvailableUSD:   available,
		PaidUSD:        paid,
		PayoutEligible: available >= s.payoutThresholdUSD,
	}, nil
}

func (s *Service) ListEarnings(ctx context.Context, referrerID uuid.UUID) ([]*models.ReferralEarning, error) {
	return s.repo.ListForReferrer(ctx, referrerID)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// MaturationSweep runs MatureEarnings on a fixed interval.
type MaturationSweep struct {
	service  *Service
	interval time.Duration
	stopCh   chan struct{}
}

func NewMaturationSweep(service *Service, interval time.Duration) *MaturationSweep {
	return &MaturationSweep{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (m *MaturationSweep) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("Referral maturation sweep started (interval: %v)", m.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Referral maturation sweep stopped due to context cancellation")
			return
		case <-m.stopCh:
			log.Println("Referral maturation sweep stopped")
			return
		case <-ticker.C:
			if promoted, err := m.service.MatureEarnings(ctx); err != nil {
				log.Printf("Maturation error: %v", err)
			} else if promoted > 0 {
				log.Printf("Maturation completed: %d earnings now available", promoted)
			}
		}
	}
}

func (m *MaturationSweep) Stop() {
	close(m.stopCh)
}
