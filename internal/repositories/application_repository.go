package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

const applicationColumns = `
	id, task_id, doer_id, message, status, created_at, updated_at`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *models.TaskApplication) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO task_applications (task_id, doer_id, message, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, a.TaskID, a.DoerID, a.Message, a.Status).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	// The (task_id, doer_id) unique index is the real duplicate guard;
	// a racing second insert surfaces here.
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return apperrors.ErrApplicationExists
	}
	return err
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.TaskApplication, error) {
	var a models.TaskApplication
	err := r.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM task_applications WHERE id = $1
	`, id).Scan(&a.ID, &a.TaskID, &a.DoerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) ListByTask(ctx context.Context, taskID string) ([]*models.TaskApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM task_applications WHERE task_id = $1 ORDER BY created_at ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *ApplicationRepository) ListByDoer(ctx context.Context, doerID string) ([]*models.TaskApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM task_applications WHERE doer_id = $1 ORDER BY created_at DESC
	`, doerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE task_applications SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrApplicationNotFound)
}

// Accept marks one application accepted and every other pending application
// on the same task rejected, atomically.
func (r *ApplicationRepository) Accept(ctx context.Context, taskID, applicationID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE task_applications SET status = $1, updated_at = now()
		WHERE id = $2 AND task_id = $3 AND status = $4
	`, models.ApplicationStatusAccepted, applicationID, taskID, models.ApplicationStatusPending)
	if err != nil {
		return err
	}
	if err := requireRow(result, apperrors.ErrApplicationNotFound); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE task_applications SET status = $1, updated_at = now()
		WHERE task_id = $2 AND id <> $3 AND status = $4
	`, models.ApplicationStatusRejected, taskID, applicationID, models.ApplicationStatusPending); err != nil {
		return err
	}

	return tx.Commit()
}

func scanApplications(rows *sql.Rows) ([]*models.TaskApplication, error) {
	var apps []*models.TaskApplication
	for rows.Next() {
		var a models.TaskApplication
		if err := rows.Scan(&a.ID, &a.TaskID, &a.DoerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, &a)
	}
	return apps, rows.Err()
}
