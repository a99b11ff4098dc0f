package payments

import "context"

// Authorization is the gateway's record of a hold placed on the requester's
// card at assignment time. Funds are not captured until work starts.
type Authorization struct {
	ProviderPaymentID string
	AmountCents       int64
}

// Transfer is a completed payout to the doer.
type Transfer struct {
	ProviderTransferID string
	AmountCents        int64
}

// Gateway is the escrow-capable payment provider. Every call takes an
// idempotency key: a retried call with the same key must not move money
// twice. Implementations return apperrors.PaymentFailure on provider
// errors so callers never persist state the provider did not confirm.
type Gateway interface {
	// AuthorizeEscrow places a hold for the full charge amount on the
	// requester's payment method.
	AuthorizeEscrow(ctx context.Context, customerID string, amountCents int64, idempotencyKey string) (*Authorization, error)

	// Capture settles a previously placed hold.
	Capture(ctx context.Context, providerPaymentID string, idempotencyKey string) error

	// CancelAuthorization voids an uncaptured hold.
	CancelAuthorization(ctx context.Context, providerPaymentID string, idempotencyKey string) error

	// Transfer pays the doer their payout from captured funds.
	Transfer(ctx context.Context, payoutAccountID string, amountCents int64, idempotencyKey string) (*Transfer, error)

	// Refund returns captured funds to the requester.
	Refund(ctx context.Context, providerPaymentID string, amountCents int64, idempotencyKey string) error
}
