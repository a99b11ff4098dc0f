package repositories

import (
	"context"
	"database/sql"

	"taskmarket_backend/internal/models"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, e *models.AuditEntry) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.ActorID, e.Action, e.EntityType, e.EntityID, e.OldValue, e.NewValue).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *AuditRepository) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, old_value, new_value, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *AuditRepository) RecordModeration(ctx context.Context, e *models.ModerationLogEntry) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO moderation_log (entity_type, entity_id, action, reason, moderator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.EntityType, e.EntityID, e.Action, e.Reason, e.ModeratorID).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *AuditRepository) ListModerationForEntity(ctx context.Context, entityType, entityID string) ([]*models.ModerationLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, reason, moderator_id, created_at
		FROM moderation_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ModerationLogEntry
	for rows.Next() {
		var e models.ModerationLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Reason, &e.ModeratorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
