package repositories

import (
	"context"
	"database/sql"

	"taskmarket_backend/internal/models"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.TaskMessage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO task_messages (task_id, sender_id, body, redacted)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, m.TaskID, m.SenderID, m.Body, m.Redacted).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MessageRepository) ListByTask(ctx context.Context, taskID string, limit, offset int) ([]*models.TaskMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, sender_id, body, redacted, created_at, updated_at
		FROM task_messages
		WHERE task_id = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, taskID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.TaskMessage
	for rows.Next() {
		var m models.TaskMessage
		if err := rows.Scan(&m.ID, &m.TaskID, &m.SenderID, &m.Body, &m.Redacted, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
