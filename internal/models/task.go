package models

import (
	"time"

	"taskmarket_backend/pkg/apperrors"
)

// TaskStatus is the task lifecycle state. All mutations go through
// TransitionTo; no other code path may change a task's status.
//
//	draft -> pending_review -> published -> assigned -> in_progress -> submitted -> completed
//	              |                |            |                          |
//	              v                v            v                          v
//	          rejected          expired     cancelled                  disputed -> resolved
type TaskStatus string

const (
	TaskStatusDraft         TaskStatus = "draft"
	TaskStatusPendingReview TaskStatus = "pending_review"
	TaskStatusPublished     TaskStatus = "published"
	TaskStatusAssigned      TaskStatus = "assigned"
	TaskStatusInProgress    TaskStatus = "in_progress"
	TaskStatusSubmitted     TaskStatus = "submitted"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusDisputed      TaskStatus = "disputed"
	TaskStatusResolved      TaskStatus = "resolved"
	TaskStatusCancelled     TaskStatus = "cancelled"
	TaskStatusExpired       TaskStatus = "expired"
	TaskStatusRejected      TaskStatus = "rejected"

	// TaskStatusUnknown is returned by ParseTaskStatus for unrecognized
	// input. It has no outgoing or incoming transitions.
	TaskStatusUnknown TaskStatus = "unknown"
)

// taskTransitions is the single source of truth for allowed edges.
// Terminal states (completed, resolved, cancelled, expired, rejected) have
// no entry and therefore no outgoing edges.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusDraft:         {TaskStatusPendingReview},
	TaskStatusPendingReview: {TaskStatusPublished, TaskStatusRejected},
	TaskStatusPublished:     {TaskStatusAssigned, TaskStatusCancelled, TaskStatusExpired},
	TaskStatusAssigned:      {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress:    {TaskStatusSubmitted},
	TaskStatusSubmitted:     {TaskStatusCompleted, TaskStatusDisputed},
	TaskStatusDisputed:      {TaskStatusResolved},
}

// TransitionTo validates the edge from s to target and returns target, or
// an invalid-transition error. The check is pure: it knows nothing about
// time, actors, or payment state; those gates live in the service layer.
func (s TaskStatus) TransitionTo(target TaskStatus) (TaskStatus, error) {
	for _, allowed := range taskTransitions[s] {
		if allowed == target {
			return target, nil
		}
	}
	return s, apperrors.InvalidTransition(string(s), string(target))
}

// CanTransitionTo reports whether the edge is allowed without building the
// error.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusResolved, TaskStatusCancelled, TaskStatusExpired, TaskStatusRejected:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus maps a stored string back to a status. Unrecognized input
// yields TaskStatusUnknown; it is never silently coerced to a valid status.
func ParseTaskStatus(s string) TaskStatus {
	switch TaskStatus(s) {
	case TaskStatusDraft, TaskStatusPendingReview, TaskStatusPublished,
		TaskStatusAssigned, TaskStatusInProgress, TaskStatusSubmitted,
		TaskStatusCompleted, TaskStatusDisputed, TaskStatusResolved,
		TaskStatusCancelled, TaskStatusExpired, TaskStatusRejected:
		return TaskStatus(s)
	}
	return TaskStatusUnknown
}

type LocationType string

const (
	LocationTypeInPerson LocationType = "in_person"
	LocationTypeRemote   LocationType = "remote"
)

type Task struct {
	BaseModel
	RequesterID     string       `gorm:"type:uuid;not null;index" json:"requester_id"`
	Title           string       `gorm:"not null" json:"title"`
	Description     string       `gorm:"not null" json:"description"`
	Category        string       `gorm:"type:varchar(50);index" json:"category"`
	LocationType    LocationType `gorm:"type:varchar(20);not null" json:"location_type"`
	LocationAddress *string      `json:"location_address,omitempty"`
	PriceCents      int64        `gorm:"not null" json:"price_cents"`
	Status          TaskStatus   `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Deadline        time.Time    `gorm:"not null" json:"deadline"`
	AssignedDoerID  *string      `gorm:"type:uuid;index" json:"assigned_doer_id,omitempty"`
	ModerationNote  *string      `json:"moderation_note,omitempty"`
	RejectionReason *string      `json:"rejection_reason,omitempty"`
}
