package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

const paymentColumns = `
	id, task_id, requester_id, doer_id, task_price_cents, platform_fee_cents,
	processor_fee_cents, total_charged_cents, doer_payout_cents,
	provider_payment_id, provider_transfer_id, status,
	escrowed_at, released_at, refunded_at, created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payments (
			task_id, requester_id, doer_id, task_price_cents, platform_fee_cents,
			processor_fee_cents, total_charged_cents, doer_payout_cents,
			provider_payment_id, status, escrowed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`,
		p.TaskID, p.RequesterID, p.DoerID, p.TaskPriceCents, p.PlatformFeeCents,
		p.ProcessorFeeCents, p.TotalChargedCents, p.DoerPayoutCents,
		p.ProviderPaymentID, p.Status, p.EscrowedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PaymentRepository) GetByTaskID(ctx context.Context, taskID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE task_id = $1
	`, taskID).Scan(
		&p.ID, &p.TaskID, &p.RequesterID, &p.DoerID, &p.TaskPriceCents, &p.PlatformFeeCents,
		&p.ProcessorFeeCents, &p.TotalChargedCents, &p.DoerPayoutCents,
		&p.ProviderPaymentID, &p.ProviderTransferID, &p.Status,
		&p.EscrowedAt, &p.ReleasedAt, &p.RefundedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) MarkEscrowed(ctx context.Context, id string, at time.Time) error {
	return r.setStatus(ctx, id, models.PaymentStatusEscrowed, "escrowed_at", at)
}

func (r *PaymentRepository) MarkReleased(ctx context.Context, id, providerTransferID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET
			status = $1, provider_transfer_id = $2, released_at = $3, updated_at = now()
		WHERE id = $4
	`, models.PaymentStatusReleased, providerTransferID, at, id)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrPaymentNotFound)
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id string, at time.Time) error {
	return r.setStatus(ctx, id, models.PaymentStatusRefunded, "refunded_at", at)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = now() WHERE id = $2
	`, models.PaymentStatusFailed, id)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrPaymentNotFound)
}

func (r *PaymentRepository) setStatus(ctx context.Context, id string, status models.PaymentStatus, tsColumn string, at time.Time) error {
	// tsColumn is always a compile-time constant from this file, never
	// user input.
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, `+tsColumn+` = $2, updated_at = now()
		WHERE id = $3
	`, status, at, id)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrPaymentNotFound)
}

// CountRecentRefundsAgainstDoer counts disputes the doer lost inside the
// look-back window. A refunded payment on a resolved task means the dispute
// went against the doer.
func (r *PaymentRepository) CountRecentRefundsAgainstDoer(ctx context.Context, doerID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM payments p
		JOIN tasks t ON t.id = p.task_id
		WHERE p.doer_id = $1
			AND p.status = $2
			AND p.refunded_at >= $3
			AND t.status = $4
	`, doerID, models.PaymentStatusRefunded, since, models.TaskStatusResolved).Scan(&count)
	return count, err
}

// CountTotalRefundsAgainstDoer counts all disputes the doer has ever lost.
func (r *PaymentRepository) CountTotalRefundsAgainstDoer(ctx context.Context, doerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM payments p
		JOIN tasks t ON t.id = p.task_id
		WHERE p.doer_id = $1 AND p.status = $2 AND t.status = $3
	`, doerID, models.PaymentStatusRefunded, models.TaskStatusResolved).Scan(&count)
	return count, err
}
