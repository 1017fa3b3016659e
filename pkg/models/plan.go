package models

type PlanTier string

const (
	TierFree       PlanTier = "free"
	TierPro        PlanTier = "pro"
	TierEnterprise PlanTier = "enterprise"
)

// PricingPlan is static subscription configuration. Looked up, never mutated.
type PricingPlan struct {
	Tier                    PlanTier
	RatePerCredit           float64 // USD per credit
	MinCreditsPerOrder      int
	IncludedCreditsPerCycle int
}

var plans = map[PlanTier]PricingPlan{
	TierFree:       {Tier: TierFree, RatePerCredit: 0.10, MinCreditsPerOrder: 0, IncludedCreditsPerCycle: 100},
	TierPro:        {Tier: TierPro, RatePerCredit: 0.06, MinCreditsPerOrder: 500, IncludedCreditsPerCycle: 0},
	TierEnterprise: {Tier: TierEnterprise, RatePerCredit: 0.04, MinCreditsPerOrder: 2000, IncludedCreditsPerCycle: 0},
}

// PlanFor returns the pricing plan for a tier, falling back to free for
// unknown tiers so a bad row can never price below the public rate.
func PlanFor(tier PlanTier) PricingPlan {
	if p, ok := plans[tier]; ok {
		return p
	}
	return plans[TierFree]
}

// NextLowerTier returns the tier whose rate applies to below-minimum orders.
// Free has no lower tier; it is its own floor.
func NextLowerTier(tier PlanTier) PlanTier {
	switch tier {
	case TierEnterprise:
		return TierPro
	case TierPro:
		return TierFree
	default:
		return TierFree
	}
}
