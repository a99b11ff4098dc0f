package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

const reviewColumns = `
	id, task_id, reviewer_id, reviewee_id, reliability, quality,
	communication, integrity, comment, created_at, updated_at`

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (
			task_id, reviewer_id, reviewee_id, reliability, quality,
			communication, integrity, comment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`,
		rev.TaskID, rev.ReviewerID, rev.RevieweeID, rev.Reliability, rev.Quality,
		rev.Communication, rev.Integrity, rev.Comment,
	).Scan(&rev.ID, &rev.CreatedAt, &rev.UpdatedAt)

	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return apperrors.ErrReviewExists
	}
	return err
}

func (r *ReviewRepository) GetByTaskAndReviewer(ctx context.Context, taskID, reviewerID string) (*models.Review, error) {
	var rev models.Review
	err := r.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews WHERE task_id = $1 AND reviewer_id = $2
	`, taskID, reviewerID).Scan(
		&rev.ID, &rev.TaskID, &rev.ReviewerID, &rev.RevieweeID, &rev.Reliability, &rev.Quality,
		&rev.Communication, &rev.Integrity, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) ListForUser(ctx context.Context, revieweeID string, limit, offset int) ([]*models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews WHERE reviewee_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, revieweeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(
			&rev.ID, &rev.TaskID, &rev.ReviewerID, &rev.RevieweeID, &rev.Reliability, &rev.Quality,
			&rev.Communication, &rev.Integrity, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, &rev)
	}
	return reviews, rows.Err()
}

// ReviewAggregates is the per-dimension rollup the reputation recompute
// consumes. PositiveCount follows the all-dimensions-at-least-3 rule.
type ReviewAggregates struct {
	Count            int
	AvgReliability   float64
	AvgQuality       float64
	AvgCommunication float64
	AvgIntegrity     float64
	PositiveCount    int
}

func (r *ReviewRepository) AggregatesForUser(ctx context.Context, revieweeID string) (*ReviewAggregates, error) {
	var agg ReviewAggregates
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(reliability), 0),
			COALESCE(AVG(quality), 0),
			COALESCE(AVG(communication), 0),
			COALESCE(AVG(integrity), 0),
			COUNT(*) FILTER (
				WHERE reliability >= 3 AND quality >= 3
					AND communication >= 3 AND integrity >= 3
			)
		FROM reviews WHERE reviewee_id = $1
	`, revieweeID).Scan(
		&agg.Count, &agg.AvgReliability, &agg.AvgQuality,
		&agg.AvgCommunication, &agg.AvgIntegrity, &agg.PositiveCount,
	)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
