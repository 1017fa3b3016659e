package referrals

import (
	"context"
	"testing"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseEntry(user uuid.UUID, credits int, usd float64) *models.CreditLedgerEntry {
	return &models.CreditLedgerEntry{
		ID:        uuid.New(),
		UserID:    user,
		Delta:     credits,
		Reason:    models.ReasonPurchase,
		AmountUSD: usd,
		CreatedAt: time.Now(),
	}
}

func TestOnPurchaseCreatesPendingEarning(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0.20, 336*time.Hour, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()
	account := &models.Account{UserID: user, ReferredBy: &referrer}

	// $50 purchase at a 20% rate: exactly one $10 pending earning.
	svc.OnPurchase(ctx, account, purchaseEntry(user, 500, 50))

	earnings, err := svc.ListEarnings(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	assert.Equal(t, 10.0, earnings[0].AmountUSD)
	assert.Equal(t, models.EarningPending, earnings[0].Status)
	assert.Equal(t, user, earnings[0].ReferredID)
}

func TestOnPurchaseDeduplicatesBySourceEntry(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0.20, 336*time.Hour, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()
	account := &models.Account{UserID: user, ReferredBy: &referrer}
	entry := purchaseEntry(user, 500, 50)

	svc.OnPurchase(ctx, account, entry)
	svc.OnPurchase(ctx, account, entry) // re-delivered event

	earnings, err := svc.ListEarnings(ctx, referrer)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestEarningAmountFrozenAtCreation(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 0.20, 336*time.Hour, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()
	account := &models.Account{UserID: user, ReferredBy: &referrer}

	svc.OnPurchase(ctx, account, purchaseEntry(user, 500, 50))

	// A new rate applies only to future earnings.
	svc = NewService(repo, 0.50, 336*time.Hour, 50)
	svc.OnPurchase(ctx, account, purchaseEntry(user, 500, 50))

	earnings, err := svc.ListEarnings(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, earnings, 2)

	amounts := []float64{earnings[0].AmountUSD, earnings[1].AmountUSD}
	assert.Contains(t, amounts, 10.0)
	assert.Contains(t, amounts, 25.0)
}

func TestMaturationPromotesOnlyAgedEarnings(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 0.20, time.Hour, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()

	old := &models.ReferralEarning{
		ReferrerID:            referrer,
		ReferredID:            user,
		SourcePurchaseEntryID: uuid.New(),
		AmountUSD:             10,
		Status:                models.EarningPending,
		CreatedAt:             time.Now().Add(-2 * time.Hour),
	}
	recent := &models.ReferralEarning{
		ReferrerID:            referrer,
		ReferredID:            user,
		SourcePurchaseEntryID: uuid.New(),
		AmountUSD:             25,
		Status:                models.EarningPending,
		CreatedAt:             time.Now(),
	}
	require.NoError(t, repo.CreateEarning(ctx, old))
	require.NoError(t, repo.CreateEarning(ctx, recent))

	promoted, err := svc.MatureEarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), promoted)

	summary, err := svc.Summary(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, 10.0, summary.AvailableUSD)
	assert.Equal(t, 25.0, summary.PendingUSD)
}

func TestPayoutEligibilityThreshold(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 0.20, time.Nanosecond, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()
	account := &models.Account{UserID: user, ReferredBy: &referrer}

	svc.OnPurchase(ctx, account, purchaseEntry(user, 500, 120)) // $24 earning
	time.Sleep(time.Millisecond)
	_, err := svc.MatureEarnings(ctx)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, 24.0, summary.AvailableUSD)
	assert.False(t, summary.PayoutEligible)

	svc.OnPurchase(ctx, account, purchaseEntry(user, 1000, 150)) // $30 more
	time.Sleep(time.Millisecond)
	_, err = svc.MatureEarnings(ctx)
	require.NoError(t, err)

	summary, err = svc.Summary(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, 54.0, summary.AvailableUSD)
	assert.True(t, summary.PayoutEligible)
}

func TestNonPurchaseEntriesIgnored(t *testing.T) {
	svc := NewService(NewMemoryRepository(), 0.20, 336*time.Hour, 50)
	ctx := context.Background()

	referrer := uuid.New()
	user := uuid.New()
	account := &models.Account{UserID: user, ReferredBy: &referrer}

	refund := purchaseEntry(user, 100, 10)
	refund.Reason = models.ReasonRefund
	svc.OnPurchase(ctx, account, refund)

	earnings, err := svc.ListEarnings(ctx, referrer)
	require.NoError(t, err)
	assert.Empty(t, earnings)
}
