package ledger

import (
	"context"
	"fmt"
	"log"
	"math"

	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// PurchaseListener is notified after a purchase entry is written. Referral
// accounting hooks in here; the ledger stays unaware of referral rules.
type PurchaseListener interface {
	OnPurchase(ctx context.Context, account *models.Account, entry *models.CreditLedgerEntry)
}

type Service interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID, tier models.PlanTier, referredBy *uuid.UUID) (*models.Account, error)

	Credit(ctx context.Context, userID uuid.UUID, amount int, reason models.LedgerReason, amountUSD float64) (*models.CreditLedgerEntry, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int, reason models.LedgerReason) (*models.CreditLedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	ListLedger(ctx context.Context, userID uuid.UUID) ([]*models.CreditLedgerEntry, error)

	// QuoteJobDebit prices a job of the given credit volume under the user's
	// plan: face value normally, marked up below the plan minimum, and always
	// face value on the user's very first debit.
	QuoteJobDebit(ctx context.Context, userID uuid.UUID, credits int) (int, error)

	// Purchase buys credits at the plan rate, enforcing the plan's minimum
	// order, and notifies the purchase listener.
	Purchase(ctx context.Context, userID uuid.UUID, credits int) (*models.CreditLedgerEntry, error)

	// GrantFreeCredits issues the plan's included credits as a free_grant.
	GrantFreeCredits(ctx context.Context, userID uuid.UUID) (*models.CreditLedgerEntry, error)
}

type LedgerService struct {
	repo     LedgerRepository
	listener PurchaseListener
	tracer   trace.Tracer
}

var _ Service = (*LedgerService)(nil)

func NewService(repo LedgerRepository) *LedgerService {
	return &LedgerService{
		repo:   repo,
		tracer: otel.Tracer("leadharvest/ledger"),
	}
}

// SetPurchaseListener wires referral accounting after construction; the two
// services reference each other only through this hook.
func (s *LedgerService) SetPurchaseListener(l PurchaseListener) {
	s.listener = l
}

func (s *LedgerService) EnsureAccount(ctx context.Context, userID uuid.UUID, tier models.PlanTier, referredBy *uuid.UUID) (*models.Account, error) {
	return s.repo.EnsureAccount(ctx, userID, tier, referredBy)
}

func (s *LedgerService) Credit(ctx context.Context, userID uuid.UUID, amount int, reason models.LedgerReason, amountUSD float64) (*models.CreditLedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Credit")
	defer span.End()

	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	entry, err := s.repo.ApplyDelta(ctx, userID, amount, reason, amountUSD)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to credit user %s: %w", userID, err)
	}

	log.Printf("LedgerService.Credit: user %s +%d (%s), balance=%d", userID, amount, reason, entry.BalanceAfter)
	return entry, nil
}

func (s *LedgerService) Debit(ctx context.Context, userID uuid.UUID, amount int, reason models.LedgerReason) (*models.CreditLedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Debit")
	defer span.End()

	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	entry, err := s.repo.ApplyDelta(ctx, userID, -amount, reason, 0)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log.Printf("LedgerService.Debit: user %s -%d (%s), balance=%d", userID, amount, reason, entry.BalanceAfter)
	return entry, nil
}

func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return account.Balance, nil
}

func (s *LedgerService) ListLedger(ctx context.Context, userID uuid.UUID) ([]*models.CreditLedgerEntry, error) {
	return s.repo.ListEntries(ctx, userID)
}

func (s *LedgerService) QuoteJobDebit(ctx context.Context, userID uuid.UUID, credits int) (int, error) {
	if credits <= 0 {
		return 0, fmt.Errorf("credit volume must be positive, got %d", credits)
	}

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", userID, err)
	}

	// First-extraction bootstrap: the very first debit is allowed down to a
	// single credit at face value, regardless of the plan minimum.
	if account.DebitCount == 0 {
		return credits, nil
	}

	plan := models.PlanFor(account.PlanTier)
	if credits >= plan.MinCreditsPerOrder {
		return credits, nil
	}

	// Below-minimum orders pay the next-lower tier's rate, expressed as a
	// credit markup. Free is the floor rate, so the quote never drops below
	// face value.
	lower := models.PlanFor(models.NextLowerTier(account.PlanTier))
	quoted := int(math.Ceil(float64(credits) * lower.RatePerCredit / plan.RatePerCredit))
	if quoted < credits {
		quoted = credits
	}
	return quoted, nil
}

func (s *LedgerService) Purchase(ctx context.Context, userID uuid.UUID, credits int) (*models.CreditLedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Purchase")
	defer span.End()

	if credits <= 0 {
		return nil, fmt.Errorf("purchase volume must be positive, got %d", credits)
	}

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}

	plan := models.PlanFor(account.PlanTier)
	if credits < plan.MinCreditsPerOrder {
		return nil, fmt.Errorf("minimum order for the %s plan is %d credits", plan.Tier, plan.MinCreditsPerOrder)
	}

	// USD valuation is frozen into the entry at purchase time.
	amountUSD := float64(credits) * plan.RatePerCredit

	entry, err := s.Credit(ctx, userID, credits, models.ReasonPurchase, amountUSD)
	if err != nil {
		return nil, err
	}

	if s.listener != nil && account.ReferredBy != nil {
		s.listener.OnPurchase(ctx, account, entry)
	}

	return entry, nil
}

func (s *LedgerService) GrantFreeCredits(ctx context.Context, userID uuid.UUID) (*models.CreditLedgerEntry, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}

	plan := models.PlanFor(account.PlanTier)
	if plan.IncludedCreditsPerCycle <= 0 {
		return nil, fmt.Errorf("plan %s includes no free credits", plan.Tier)
	}

	return s.Credit(ctx, userID, plan.IncludedCreditsPerCycle, models.ReasonFreeGrant, 0)
}
