package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memoryRepository mirrors the Postgres repository's atomicity with a mutex
// acting as the per-user serialization point. Used by tests.
type memoryRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
	entries  map[uuid.UUID][]*models.CreditLedgerEntry
}

func NewMemoryRepository() LedgerRepository {
	return &memoryRepository{
		accounts: make(map[uuid.UUID]*models.Account),
		entries:  make(map[uuid.UUID][]*models.CreditLedgerEntry),
	}
}

func (r *memoryRepository) EnsureAccount(ctx context.Context, userID uuid.UUID, tier models.PlanTier, referredBy *uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[userID]; ok {
		clone := *account
		return &clone, nil
	}

	now := time.Now()
	account := &models.Account{
		UserID:     userID,
		PlanTier:   tier,
		ReferredBy: referredBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.accounts[userID] = account
	clone := *account
	return &clone, nil
}

func (r *memoryRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *memoryRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta int, reason models.LedgerReason, amountUSD float64) (*models.CreditLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	if delta < 0 {
		if account.Balance < -delta {
			return nil, ErrInsufficientCredits
		}
		account.DebitCount++
	}
	account.Balance += delta
	account.UpdatedAt = time.Now()

	if account.Balance < 0 {
		return nil, ErrLedgerConsistency
	}

	entry := &models.CreditLedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Delta:        delta,
		Reason:       reason,
		AmountUSD:    amountUSD,
		BalanceAfter: account.Balance,
		CreatedAt:    time.Now(),
	}
	r.entries[userID] = append(r.entries[userID], entry)

	clone := *entry
	return &clone, nil
}

func (r *memoryRepository) ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.CreditLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*models.CreditLedgerEntry, 0, len(r.entries[userID]))
	for _, e := range r.entries[userID] {
		clone := *e
		entries = append(entries, &clone)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}
