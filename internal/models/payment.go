package models

import "time"

// Fee policy. Two separate fees, never conflated:
//
//   - Platform fee: exactly 1% of the task price, rounded down.
//   - Processor fee: ~2.9% + 30c, reverse-solved so the platform retains
//     the full subtotal after the processor takes its cut.
//
// The requester pays price + platform fee + processor fee.
// The doer receives price - platform fee.
// The platform absorbs its own fee on refunds.
//
// Changing these constants is the only sanctioned way to alter fee policy.
const (
	PlatformFeeBPS         int64 = 100 // 1%
	ProcessorRateBPS       int64 = 290 // 2.9%
	ProcessorFixedFeeCents int64 = 30

	// MinTaskPriceCents is enforced upstream of CalculateFees; prices above
	// MaxTaskPriceCents are flagged for manual review when posting.
	MinTaskPriceCents int64 = 500
	MaxTaskPriceCents int64 = 500_000
)

// FeeBreakdown is the immutable result of the fee calculation. All amounts
// are integer minor units (cents); currency never touches floating point.
type FeeBreakdown struct {
	TaskPriceCents    int64 `json:"task_price_cents"`
	PlatformFeeCents  int64 `json:"platform_fee_cents"`
	DoerPayoutCents   int64 `json:"doer_payout_cents"`
	ProcessorFeeCents int64 `json:"processor_fee_cents"`
	TotalChargedCents int64 `json:"total_charged_cents"`
}

// CalculateFees computes the full breakdown for a task price. The caller is
// responsible for rejecting out-of-range prices first; this function assumes
// a valid positive price and has no error path.
//
//	platform_fee = floor(price * 100 / 10000)          (rounds down)
//	payout       = price - platform_fee
//	subtotal     = price + platform_fee
//	total        = ceil((subtotal + 30) * 10000 / 9710) (rounds up)
//	processor    = total - subtotal
//
// Floor on the platform fee means the platform never over-collects from the
// payer's side; ceiling on the gross-up guarantees the subtotal is fully
// covered despite integer truncation.
func CalculateFees(priceCents int64) FeeBreakdown {
	platformFee := priceCents * PlatformFeeBPS / 10_000
	doerPayout := priceCents - platformFee
	subtotal := priceCents + platformFee

	numerator := (subtotal + ProcessorFixedFeeCents) * 10_000
	denominator := 10_000 - ProcessorRateBPS
	totalCharged := (numerator + denominator - 1) / denominator
	processorFee := totalCharged - subtotal

	return FeeBreakdown{
		TaskPriceCents:    priceCents,
		PlatformFeeCents:  platformFee,
		DoerPayoutCents:   doerPayout,
		ProcessorFeeCents: processorFee,
		TotalChargedCents: totalCharged,
	}
}

type Payment struct {
	BaseModel
	TaskID             string        `gorm:"type:uuid;not null;uniqueIndex" json:"task_id"`
	RequesterID        string        `gorm:"type:uuid;not null;index" json:"requester_id"`
	DoerID             string        `gorm:"type:uuid;not null;index" json:"doer_id"`
	TaskPriceCents     int64         `gorm:"not null" json:"task_price_cents"`
	PlatformFeeCents   int64         `gorm:"not null" json:"platform_fee_cents"`
	ProcessorFeeCents  int64         `gorm:"not null" json:"processor_fee_cents"`
	TotalChargedCents  int64         `gorm:"not null" json:"total_charged_cents"`
	DoerPayoutCents    int64         `gorm:"not null" json:"doer_payout_cents"`
	ProviderPaymentID  string        `gorm:"not null" json:"-"`
	ProviderTransferID *string       `json:"-"`
	Status             PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	EscrowedAt         *time.Time    `json:"escrowed_at,omitempty"`
	ReleasedAt         *time.Time    `json:"released_at,omitempty"`
	RefundedAt         *time.Time    `json:"refunded_at,omitempty"`
}
