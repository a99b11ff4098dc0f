package repositories

import (
	"context"
	"database/sql"
	"errors"

	"taskmarket_backend/internal/models"
)

type ReputationRepository struct {
	db *sql.DB
}

func NewReputationRepository(db *sql.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// Get returns the stored summary, or nil when the user has no history yet.
// Absence is not an error: a missing row simply means trust level 0 inputs.
func (r *ReputationRepository) Get(ctx context.Context, userID string) (*models.ReputationSummary, error) {
	var s models.ReputationSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			user_id, total_completed, cancelled_as_doer, disputes_lost,
			completion_rate, avg_reliability, avg_quality, avg_communication,
			avg_integrity, review_count, positive_review_rate, updated_at
		FROM reputation_summary WHERE user_id = $1
	`, userID).Scan(
		&s.UserID, &s.TotalCompleted, &s.CancelledAsDoer, &s.DisputesLost,
		&s.CompletionRate, &s.AvgReliability, &s.AvgQuality, &s.AvgCommunication,
		&s.AvgIntegrity, &s.ReviewCount, &s.PositiveReviewRate, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes the freshly recomputed summary, replacing any previous row.
func (r *ReputationRepository) Upsert(ctx context.Context, s *models.ReputationSummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reputation_summary (
			user_id, total_completed, cancelled_as_doer, disputes_lost,
			completion_rate, avg_reliability, avg_quality, avg_communication,
			avg_integrity, review_count, positive_review_rate, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_completed = EXCLUDED.total_completed,
			cancelled_as_doer = EXCLUDED.cancelled_as_doer,
			disputes_lost = EXCLUDED.disputes_lost,
			completion_rate = EXCLUDED.completion_rate,
			avg_reliability = EXCLUDED.avg_reliability,
			avg_quality = EXCLUDED.avg_quality,
			avg_communication = EXCLUDED.avg_communication,
			avg_integrity = EXCLUDED.avg_integrity,
			review_count = EXCLUDED.review_count,
			positive_review_rate = EXCLUDED.positive_review_rate,
			updated_at = now()
	`,
		s.UserID, s.TotalCompleted, s.CancelledAsDoer, s.DisputesLost,
		s.CompletionRate, s.AvgReliability, s.AvgQuality, s.AvgCommunication,
		s.AvgIntegrity, s.ReviewCount, s.PositiveReviewRate,
	)
	return err
}

// DoerHistory is the task-side input to the reputation recompute.
type DoerHistory struct {
	Completed int
	Cancelled int
}

// HistoryForDoer counts the doer's finished engagements from the tasks
// table. Resolved tasks count toward neither bucket here; dispute outcomes
// are tallied separately from payments.
func (r *ReputationRepository) HistoryForDoer(ctx context.Context, doerID string) (*DoerHistory, error) {
	var h DoerHistory
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM tasks WHERE assigned_doer_id = $1
	`, doerID, models.TaskStatusCompleted, models.TaskStatusCancelled).Scan(&h.Completed, &h.Cancelled)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
