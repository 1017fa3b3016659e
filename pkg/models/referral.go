package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EarningStatus string

const (
	EarningPending   EarningStatus = "pending"
	EarningAvailable EarningStatus = "available"
	EarningPaid      EarningStatus = "paid"
)

// ReferralEarning is the rebate owed to a referrer for one qualifying
// purchase by a referred user. AmountUSD is frozen at creation time; a later
// rate change never reprices an existing row. The unique index on
// SourcePurchaseEntryID guarantees one earning per purchase.
type ReferralEarning struct {
	ID                    uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	ReferrerID            uuid.UUID     `json:"referrer_id" gorm:"type:uuid;not null;index"`
	ReferredID            uuid.UUID     `json:"referred_id" gorm:"type:uuid;not null;index"`
	SourcePurchaseEntryID uuid.UUID     `json:"source_purchase_entry_id" gorm:"type:uuid;not null;uniqueIndex"`
	AmountUSD             float64       `json:"amount_usd" gorm:"not null"`
	Status                EarningStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt             time.Time     `json:"created_at" gorm:"index"`
	MaturedAt             *time.Time    `json:"matured_at,omitempty"`
}

func (ReferralEarning) TableName() string {
	return "referral_earnings"
}

func (e *ReferralEarning) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	return nil
}

// ReferralSummary aggregates a referrer's earnings by status.
// @Description Referral earnings totals in USD
type ReferralSummary struct {
	PendingUSD     float64 `json:"pending_usd"`
	AvailableUSD   float64 `json:"available_usd"`
	PaidUSD        float64 `json:"paid_usd"`
	PayoutEligible bool    `json:"payout_eligible"`
} // @name ReferralSummary
