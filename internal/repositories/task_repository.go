package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

const taskColumns = `
	id, requester_id, title, description, category, location_type,
	location_address, price_cents, status, deadline, assigned_doer_id,
	moderation_note, rejection_reason, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (
			requester_id, title, description, category, location_type,
			location_address, price_cents, status, deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		t.RequesterID, t.Title, t.Description, t.Category, t.LocationType,
		t.LocationAddress, t.PriceCents, t.Status, t.Deadline,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = $1
	`, id).Scan(
		&t.ID, &t.RequesterID, &t.Title, &t.Description, &t.Category, &t.LocationType,
		&t.LocationAddress, &t.PriceCents, &status, &t.Deadline, &t.AssignedDoerID,
		&t.ModerationNote, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Status = models.ParseTaskStatus(status)
	return &t, nil
}

// Update rewrites the editable fields. Status is deliberately excluded;
// status changes go through UpdateStatus so the previous state is always
// checked.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = $1, description = $2, category = $3, location_type = $4,
			location_address = $5, price_cents = $6, deadline = $7,
			moderation_note = $8, rejection_reason = $9, updated_at = now()
		WHERE id = $10
	`,
		t.Title, t.Description, t.Category, t.LocationType,
		t.LocationAddress, t.PriceCents, t.Deadline,
		t.ModerationNote, t.RejectionReason, t.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// UpdateStatus moves a task from prev to next only if it is still in prev.
// Zero rows affected means another writer won the race; the caller gets a
// conflict and must re-read before retrying.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, prev, next models.TaskStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, next, id, prev)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// AssignDoer sets the doer and moves published -> assigned in one statement,
// with the same stale-state guard as UpdateStatus.
func (r *TaskRepository) AssignDoer(ctx context.Context, id, doerID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET status = $1, assigned_doer_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.TaskStatusAssigned, doerID, id, models.TaskStatusPublished)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

type TaskFilter struct {
	Category     string
	LocationType models.LocationType
	MinPrice     int64
	MaxPrice     int64
	Limit        int
	Offset       int
}

// ListPublished returns open tasks for browsing, newest first.
func (r *TaskRepository) ListPublished(ctx context.Context, f TaskFilter) ([]*models.Task, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1
			AND ($2 = '' OR category = $2)
			AND ($3 = '' OR location_type = $3)
			AND ($4 <= 0 OR price_cents >= $4)
			AND ($5 <= 0 OR price_cents <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`
	rows, err := r.db.QueryContext(ctx, query,
		models.TaskStatusPublished, f.Category, string(f.LocationType),
		f.MinPrice, f.MaxPrice, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *TaskRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE requester_id = $1 ORDER BY created_at DESC
	`, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *TaskRepository) ListByDoer(ctx context.Context, doerID string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE assigned_doer_id = $1 ORDER BY created_at DESC
	`, doerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListByStatus feeds the admin queues: pending_review for the moderation
// backlog, disputed for open disputes. Oldest first so nothing starves.
func (r *TaskRepository) ListByStatus(ctx context.Context, status models.TaskStatus, limit, offset int) ([]*models.Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CountActivePosted counts the requester's tasks that still occupy a
// posting slot for trust-level limits.
func (r *TaskRepository) CountActivePosted(ctx context.Context, requesterID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE requester_id = $1 AND status IN ($2, $3, $4, $5, $6, $7)
	`, requesterID,
		models.TaskStatusPendingReview, models.TaskStatusPublished,
		models.TaskStatusAssigned, models.TaskStatusInProgress,
		models.TaskStatusSubmitted, models.TaskStatusDisputed,
	).Scan(&count)
	return count, err
}

// CountActiveAssigned counts tasks the doer currently holds, for the
// concurrent-assignment limit.
func (r *TaskRepository) CountActiveAssigned(ctx context.Context, doerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE assigned_doer_id = $1 AND status IN ($2, $3, $4)
	`, doerID,
		models.TaskStatusAssigned, models.TaskStatusInProgress, models.TaskStatusSubmitted,
	).Scan(&count)
	return count, err
}

// ListExpirable returns published tasks whose deadline has passed, for the
// background expiry sweep.
func (r *TaskRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = $1 AND deadline < $2
		ORDER BY deadline ASC
		LIMIT $3
	`, models.TaskStatusPublished, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var status string
		if err := rows.Scan(
			&t.ID, &t.RequesterID, &t.Title, &t.Description, &t.Category, &t.LocationType,
			&t.LocationAddress, &t.PriceCents, &status, &t.Deadline, &t.AssignedDoerID,
			&t.ModerationNote, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.Status = models.ParseTaskStatus(status)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
