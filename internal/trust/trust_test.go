package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskmarket_backend/internal/models"
)

func snapshot(completed, disputesLost int, positiveRate float64) *models.ReputationSummary {
	return &models.ReputationSummary{
		TotalCompleted:     completed,
		DisputesLost:       disputesLost,
		PositiveReviewRate: positiveRate,
	}
}

func TestEvaluate_Tiers(t *testing.T) {
	tests := []struct {
		name          string
		snap          *models.ReputationSummary
		ageDays       int
		adminApproved bool
		want          int
	}{
		{"new user", snapshot(0, 0, 0), 1, false, 0},
		{"nil snapshot", nil, 999, true, 0},
		{"tier 1 exact thresholds", snapshot(5, 0, 0), 30, false, 1},
		{"tier 1 blocked by dispute loss", snapshot(5, 1, 0), 30, false, 0},
		{"tier 1 blocked by age", snapshot(5, 0, 0), 29, false, 0},
		{"tier 2 exact thresholds", snapshot(20, 0, 0.90), 90, false, 2},
		{"tier 2 blocked by positive rate", snapshot(20, 0, 0.89), 90, false, 1},
		{"tier 2 blocked by dispute loss", snapshot(20, 1, 0.95), 90, false, 0},
		{"tier 3 exact thresholds", snapshot(50, 0, 0.95), 180, true, 3},
		{"tier 3 without admin approval caps at 2", snapshot(50, 0, 0.95), 180, false, 2},
		{"tier 3 despite dispute loss", snapshot(50, 1, 0.95), 180, true, 3},
		{"tier 3 blocked by age falls to 2", snapshot(50, 0, 0.95), 179, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snap, tt.ageDays, tt.adminApproved))
		})
	}
}

// Increasing completed, age, or positive rate while holding disputes lost at
// zero must never decrease the returned tier.
func TestEvaluate_Monotonic(t *testing.T) {
	completedSteps := []int{0, 5, 20, 50, 100}
	ageSteps := []int{0, 30, 90, 180, 365}
	rateSteps := []float64{0, 0.5, 0.90, 0.95, 1.0}

	for _, adminApproved := range []bool{false, true} {
		for _, completed := range completedSteps {
			for _, age := range ageSteps {
				prev := -1
				for _, rate := range rateSteps {
					got := Evaluate(snapshot(completed, 0, rate), age, adminApproved)
					assert.GreaterOrEqual(t, got, prev,
						"tier decreased as positive rate rose (completed=%d age=%d admin=%v)",
						completed, age, adminApproved)
					prev = got
				}
			}
		}
		for _, rate := range rateSteps {
			for _, age := range ageSteps {
				prev := -1
				for _, completed := range completedSteps {
					got := Evaluate(snapshot(completed, 0, rate), age, adminApproved)
					assert.GreaterOrEqual(t, got, prev,
						"tier decreased as completed rose (rate=%v age=%d admin=%v)",
						rate, age, adminApproved)
					prev = got
				}
			}
		}
		for _, rate := range rateSteps {
			for _, completed := range completedSteps {
				prev := -1
				for _, age := range ageSteps {
					got := Evaluate(snapshot(completed, 0, rate), age, adminApproved)
					assert.GreaterOrEqual(t, got, prev,
						"tier decreased as account aged (rate=%v completed=%d admin=%v)",
						rate, completed, adminApproved)
					prev = got
				}
			}
		}
	}
}

func TestLimits(t *testing.T) {
	assert.Equal(t, int64(10_000), MaxTaskValueCents(0))
	assert.Equal(t, int64(50_000), MaxTaskValueCents(1))
	assert.Equal(t, int64(200_000), MaxTaskValueCents(2))
	assert.Equal(t, int64(500_000), MaxTaskValueCents(3))
	assert.Equal(t, int64(0), MaxTaskValueCents(7))

	assert.Equal(t, 2, MaxConcurrentAssigned(0))
	assert.Equal(t, 20, MaxConcurrentAssigned(3))

	_, ok := MaxActivePosted(0)
	assert.False(t, ok, "level 0 must not post")
	n, ok := MaxActivePosted(1)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	assert.False(t, CanPostTasks(0))
	assert.True(t, CanPostTasks(1))
	assert.True(t, CanApplyForTasks(0))
}

func TestShouldSuspend(t *testing.T) {
	assert.False(t, ShouldSuspend(0))
	assert.False(t, ShouldSuspend(2))
	assert.True(t, ShouldSuspend(3))
	assert.True(t, ShouldSuspend(5))
}
