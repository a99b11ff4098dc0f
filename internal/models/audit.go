package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry is one row of the append-only audit log. Entries are never
// updated or deleted once written.
type AuditEntry struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ActorID    *string        `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType string         `gorm:"not null" json:"entity_type"`
	EntityID   string         `gorm:"type:uuid;not null;index" json:"entity_id"`
	OldValue   datatypes.JSON `json:"old_value,omitempty"`
	NewValue   datatypes.JSON `json:"new_value,omitempty"`
	CreatedAt  time.Time      `gorm:"default:now()" json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_log" }

// ModerationLogEntry records each classifier or admin moderation decision.
// Append-only, same as the audit log.
type ModerationLogEntry struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	EntityType  string    `gorm:"not null" json:"entity_type"`
	EntityID    string    `gorm:"type:uuid;not null;index" json:"entity_id"`
	Action      string    `gorm:"not null" json:"action"` // approved, rejected, flagged
	Reason      *string   `json:"reason,omitempty"`
	ModeratorID *string   `gorm:"type:uuid" json:"moderator_id,omitempty"` // nil for automated decisions
	CreatedAt   time.Time `gorm:"default:now()" json:"created_at"`
}

func (ModerationLogEntry) TableName() string { return "moderation_log" }
