package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientCredits is returned when a debit would drive the balance
// negative. The balance is left untouched.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrLedgerConsistency marks an internal invariant violation (a computed
// negative balance). Fatal to the operation, never clamped.
var ErrLedgerConsistency = errors.New("ledger consistency violation")

type LedgerRepository interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID, tier models.PlanTier, referredBy *uuid.UUID) (*models.Account, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)

	// ApplyDelta atomically moves the materialized balance and appends the
	// ledger entry. Read-balance and conditional-write are one statement, so
	// concurrent debits for the same user serialize on the row.
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta int, reason models.LedgerReason, amountUSD float64) (*models.CreditLedgerEntry, error)

	ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.CreditLedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) EnsureAccount(ctx context.Context, userID uuid.UUID, tier models.PlanTier, referredBy *uuid.UUID) (*models.Account, error) {
	account := &models.Account{
		UserID:     userID,
		PlanTier:   tier,
		ReferredBy: referredBy,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account %s: %w", userID, err)
	}
	return r.GetAccount(ctx, userID)
}

func (r *ledgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta int, reason models.LedgerReason, amountUSD float64) (*models.CreditLedgerEntry, error) {
	var entry *models.CreditLedgerEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if delta < 0 {
			// Conditional update: the WHERE clause is the insufficient-funds
			// check, so no partial debit can ever be observed.
			result := tx.Model(&models.Account{}).
				Where("user_id = ? AND balance >= ?", userID, -delta).
				Updates(map[string]interface{}{
					"balance":     gorm.Expr("balance + ?", delta),
					"debit_count": gorm.Expr("debit_count + 1"),
					"updated_at":  time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if _, err := r.getAccountTx(tx, userID); err != nil {
					return err
				}
				return ErrInsufficientCredits
			}
		} else {
			result := tx.Model(&models.Account{}).
				Where("user_id = ?", userID).
				Updates(map[string]interface{}{
					"balance":    gorm.Expr("balance + ?", delta),
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		account, err := r.getAccountTx(tx, userID)
		if err != nil {
			return err
		}
		if account.Balance < 0 {
			return ErrLedgerConsistency
		}

		entry = &models.CreditLedgerEntry{
			UserID:       userID,
			Delta:        delta,
			Reason:       reason,
			AmountUSD:    amountUSD,
			BalanceAfter: account.Balance,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ledgerRepository) getAccountTx(tx *gorm.DB, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.CreditLedgerEntry, error) {
	var entries []*models.CreditLedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
