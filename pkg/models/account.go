package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerReason string

const (
	ReasonFreeGrant LedgerReason = "free_grant"
	ReasonPurchase  LedgerReason = "purchase"
	ReasonJobDebit  LedgerReason = "job_debit"
	ReasonRefund    LedgerReason = "refund"
)

// Account is the materialized credit balance for one user, rebuildable by
// replaying the user's ledger entries. The identity provider owns the user
// itself; we only keep what billing needs.
type Account struct {
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;primary_key"`
	PlanTier   PlanTier   `json:"plan_tier" gorm:"type:varchar(16);not null;default:'free'"`
	ReferredBy *uuid.UUID `json:"referred_by,omitempty" gorm:"type:uuid;index"`
	Balance    int        `json:"balance" gorm:"not null;default:0;check:balance >= 0"`
	DebitCount int        `json:"debit_count" gorm:"not null;default:0"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// CreditLedgerEntry is one immutable balance change. The sum of Delta over a
// user's entries always equals the materialized Account.Balance.
type CreditLedgerEntry struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Delta        int          `json:"delta" gorm:"not null"`
	Reason       LedgerReason `json:"reason" gorm:"type:varchar(16);not null;index"`
	AmountUSD    float64      `json:"amount_usd" gorm:"not null;default:0"`
	BalanceAfter int          `json:"balance_after" gorm:"not null;check:balance_after >= 0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"index"`
}

func (CreditLedgerEntry) TableName() string {
	return "credit_ledger_entries"
}

func (e *CreditLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	return nil
}

// LedgerEntryResponse is the API view of a ledger entry.
// @Description One credit balance change
type LedgerEntryResponse struct {
	ID           uuid.UUID    `json:"id"`
	Delta        int          `json:"delta"`
	Reason       LedgerReason `json:"reason"`
	AmountUSD    float64      `json:"amount_usd,omitempty"`
	BalanceAfter int          `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
} // @name LedgerEntryResponse

func (e *CreditLedgerEntry) ToResponse() *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:           e.ID,
		Delta:        e.Delta,
		Reason:       e.Reason,
		AmountUSD:    e.AmountUSD,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
}

// PurchaseRequest buys credits against the caller's plan.
// @Description Credit purchase order
type PurchaseRequest struct {
	Credits int `json:"credits" binding:"required"`
} // @name PurchaseRequest

// RegisterAccountRequest creates the billing account for a user.
// @Description Billing account registration
type RegisterAccountRequest struct {
	PlanTier   PlanTier   `json:"plan_tier,omitempty"`
	ReferredBy *uuid.UUID `json:"referred_by,omitempty"`
} // @name RegisterAccountRequest

// AccountResponse is the API view of a billing account.
// @Description Billing account with current balance
type AccountResponse struct {
	UserID     uuid.UUID  `json:"user_id"`
	PlanTier   PlanTier   `json:"plan_tier"`
	ReferredBy *uuid.UUID `json:"referred_by,omitempty"`
	Balance    int        `json:"balance"`
	CreatedAt  time.Time  `json:"created_at"`
} // @name AccountResponse

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		UserID:     a.UserID,
		PlanTier:   a.PlanTier,
		ReferredBy: a.ReferredBy,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt,
	}
}
