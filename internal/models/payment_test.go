package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFees_KnownPrices(t *testing.T) {
	tests := []struct {
		price        int64
		platformFee  int64
		doerPayout   int64
		totalCharged int64
		processorFee int64
	}{
		{10_000, 100, 9_900, 10_433, 333},
		{500, 5, 495, 551, 46},
		{777, 7, 770, 839, 55},
		{500_000, 5_000, 495_000, 520_114, 15_114},
	}

	for _, tt := range tests {
		got := CalculateFees(tt.price)
		assert.Equal(t, tt.price, got.TaskPriceCents)
		assert.Equal(t, tt.platformFee, got.PlatformFeeCents, "price=%d", tt.price)
		assert.Equal(t, tt.doerPayout, got.DoerPayoutCents, "price=%d", tt.price)
		assert.Equal(t, tt.totalCharged, got.TotalChargedCents, "price=%d", tt.price)
		assert.Equal(t, tt.processorFee, got.ProcessorFeeCents, "price=%d", tt.price)
	}
}

// Every breakdown must balance exactly: no cent is created or destroyed by
// rounding, regardless of price.
func TestCalculateFees_Invariants(t *testing.T) {
	for price := MinTaskPriceCents; price <= MaxTaskPriceCents; price += 37 {
		got := CalculateFees(price)

		assert.Equal(t, price, got.DoerPayoutCents+got.PlatformFeeCents,
			"payout + platform fee must equal price (price=%d)", price)
		assert.Equal(t, got.TotalChargedCents,
			price+got.PlatformFeeCents+got.ProcessorFeeCents,
			"total must equal price + both fees (price=%d)", price)
		assert.Equal(t, price/100, got.PlatformFeeCents,
			"platform fee is 1%% rounded down (price=%d)", price)

		assert.GreaterOrEqual(t, got.PlatformFeeCents, int64(0))
		assert.GreaterOrEqual(t, got.ProcessorFeeCents, int64(0))
		assert.Greater(t, got.DoerPayoutCents, int64(0))
		assert.Greater(t, got.TotalChargedCents, price)
	}
}

// The gross-up must always cover the processor's actual cut so the platform
// retains at least the subtotal.
func TestCalculateFees_GrossUpCoversProcessorCut(t *testing.T) {
	for price := MinTaskPriceCents; price <= MaxTaskPriceCents; price += 91 {
		got := CalculateFees(price)
		subtotal := price + got.PlatformFeeCents

		// What the processor would actually deduct from the charged total.
		processorCut := got.TotalChargedCents*ProcessorRateBPS/10_000 + ProcessorFixedFeeCents
		assert.GreaterOrEqual(t, got.TotalChargedCents-processorCut, subtotal,
			"net of processor cut must cover subtotal (price=%d)", price)
	}
}
