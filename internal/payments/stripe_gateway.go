package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskmarket_backend/internal/logger"
	"taskmarket_backend/pkg/apperrors"
)

// StripeGateway talks to the Stripe REST API with form-encoded requests.
// Amounts are integer cents end to end; no float ever crosses this boundary.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripeGateway(secretKey, baseURL string) *StripeGateway {
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *StripeGateway) AuthorizeEscrow(ctx context.Context, customerID string, amountCents int64, idempotencyKey string) (*Authorization, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amountCents, 10))
	params.Set("currency", "usd")
	params.Set("customer", customerID)
	params.Set("capture_method", "manual")
	params.Set("confirm", "true")

	var resp struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := g.post(ctx, "/payment_intents", params, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "requires_capture" {
		return nil, apperrors.PaymentFailure(fmt.Sprintf("authorization not placed: status %s", resp.Status))
	}

	return &Authorization{ProviderPaymentID: resp.ID, AmountCents: resp.Amount}, nil
}

func (g *StripeGateway) Capture(ctx context.Context, providerPaymentID string, idempotencyKey string) error {
	path := fmt.Sprintf("/payment_intents/%s/capture", url.PathEscape(providerPaymentID))
	return g.post(ctx, path, url.Values{}, idempotencyKey, nil)
}

func (g *StripeGateway) CancelAuthorization(ctx context.Context, providerPaymentID string, idempotencyKey string) error {
	path := fmt.Sprintf("/payment_intents/%s/cancel", url.PathEscape(providerPaymentID))
	return g.post(ctx, path, url.Values{}, idempotencyKey, nil)
}

func (g *StripeGateway) Transfer(ctx context.Context, payoutAccountID string, amountCents int64, idempotencyKey string) (*Transfer, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amountCents, 10))
	params.Set("currency", "usd")
	params.Set("destination", payoutAccountID)

	var resp struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
	}
	if err := g.post(ctx, "/transfers", params, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &Transfer{ProviderTransferID: resp.ID, AmountCents: resp.Amount}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, providerPaymentID string, amountCents int64, idempotencyKey string) error {
	params := url.Values{}
	params.Set("payment_intent", providerPaymentID)
	params.Set("amount", strconv.FormatInt(amountCents, 10))
	return g.post(ctx, "/refunds", params, idempotencyKey, nil)
}

// post sends a form-encoded request and decodes the JSON response into out
// (when out is non-nil). Non-2xx responses become PaymentFailure errors with
// the provider's message attached.
func (g *StripeGateway) post(ctx context.Context, path string, params url.Values, idempotencyKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return apperrors.PaymentFailure("failed to build provider request").WithError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.PaymentFailure("provider request failed").WithError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.PaymentFailure("failed to read provider response").WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.CtxError(ctx, "payment provider error",
			"path", path,
			"status", resp.StatusCode,
		)
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := "provider rejected the request"
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return apperrors.PaymentFailure(msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.PaymentFailure("failed to decode provider response").WithError(err)
	}
	return nil
}
