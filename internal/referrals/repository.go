package referrals

import (
	"context"
	"time"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository interface {
	// CreateEarning inserts one earning per purchase entry. A duplicate source
	// entry is ignored, which is what makes re-delivered purchase events safe.
	CreateEarning(ctx context.Context, earning *models.ReferralEarning) error

	// MatureBefore promotes pending earnings created before the cutoff to
	// available. Returns the number of promoted rows.
	MatureBefore(ctx context.Context, cutoff time.Time) (int64, error)

	SummaryFor(ctx context.Context, referrerID uuid.UUID) (pending, available, paid float64, err error)
	ListForReferrer(ctx context.Context, referrerID uuid.UUID) ([]*models.ReferralEarning, error)

	// MarkPaid records an external payout. No API route calls this; payout
	// execution is ops-driven.
	MarkPaid(ctx context.Context, earningID uuid.UUID) error
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) CreateEarning(ctx context.Context, earning *models.ReferralEarning) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_purchase_entry_id"}},
			DoNothing: true,
		}).
		Create(earning).Error
}

func (r *referralRepository) MatureBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ReferralEarning{}).
		Where("status = ? AND created_at < ?", models.EarningPending, cutoff).
		Updates(map[string]interface{}{
			"status":     models.EarningAvailable,
			"matured_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *referralRepository) SummaryFor(ctx context.Context, referrerID uuid.UUID) (float64, float64, float64, error) {
	type row struct {
		Status models.EarningStatus
		Total  float64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.ReferralEarning{}).
		Select("status, COALESCE(SUM(amount_usd), 0) AS total").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, 0, err
	}

	var pending, available, paid float64
	for _, r := range rows {
		switch r.Status {
		case models.EarningPending:
			pending = r.Total
		case models.EarningAvailable:
			available = r.Total
		case models.EarningPaid:
			paid = r.Total
		}
	}
	return pending, available, paid, nil
}

func (r *referralRepository) ListForReferrer(ctx context.Context, referrerID uuid.UUID) ([]*models.ReferralEarning, error) {
	var earnings []*models.ReferralEarning
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&earnings).Error
	return earnings, err
}

func (r *referralRepository) MarkPaid(ctx context.Context, earningID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ReferralEarning{}).
		Where("id = ? AND status = ?", earningID, models.EarningAvailable).
		Update("status", models.EarningPaid).Error
}
