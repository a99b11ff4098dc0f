// Package trust computes a user's trust level from their aggregated history
// and exposes the fixed per-level policy limits.
//
// Levels are earned from actual data, never manually assigned, with one
// exception: level 3 additionally requires an explicit admin sign-off that
// this package treats as an opaque input.
//
//	| Level | Requirements                                              |
//	|-------|-----------------------------------------------------------|
//	| 0     | Registration complete                                     |
//	| 1     | 5+ completed, 0 disputes lost, age >= 30d                 |
//	| 2     | 20+ completed, 0 disputes lost, age >= 90d, >= 90% positive |
//	| 3     | admin-approved, 50+ completed, age >= 180d, >= 95% positive |
package trust

import (
	"taskmarket_backend/internal/models"
)

const (
	tier1MinCompleted = 5
	tier1MinAgeDays   = 30

	tier2MinCompleted    = 20
	tier2MinAgeDays      = 90
	tier2MinPositiveRate = 0.90

	tier3MinCompleted    = 50
	tier3MinAgeDays      = 180
	tier3MinPositiveRate = 0.95
)

// Evaluate returns the trust level the snapshot qualifies for. Tiers are
// checked from highest to lowest and the first satisfied wins: tier
// requirements are not strictly nested (tier 3 has no disputes-lost gate),
// so a low-to-high scan would give the wrong answer.
//
// Pure: the account age and admin approval arrive as inputs, never read
// from a clock or store here.
func Evaluate(snapshot *models.ReputationSummary, accountAgeDays int, adminApprovedTier3 bool) int {
	if snapshot == nil {
		return 0
	}

	if adminApprovedTier3 &&
		snapshot.TotalCompleted >= tier3MinCompleted &&
		accountAgeDays >= tier3MinAgeDays &&
		snapshot.PositiveReviewRate >= tier3MinPositiveRate {
		return 3
	}

	if snapshot.TotalCompleted >= tier2MinCompleted &&
		snapshot.DisputesLost == 0 &&
		accountAgeDays >= tier2MinAgeDays &&
		snapshot.PositiveReviewRate >= tier2MinPositiveRate {
		return 2
	}

	if snapshot.TotalCompleted >= tier1MinCompleted &&
		snapshot.DisputesLost == 0 &&
		accountAgeDays >= tier1MinAgeDays {
		return 1
	}

	return 0
}
