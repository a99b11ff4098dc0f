package services

import (
	"context"
	"time"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/repositories"
)

// Storage interfaces consumed by the services. The repositories package
// provides the real implementations; tests substitute in-memory fakes.

type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	UpdateStatus(ctx context.Context, id string, prev, next models.TaskStatus) error
	AssignDoer(ctx context.Context, id, doerID string) error
	ListPublished(ctx context.Context, f repositories.TaskFilter) ([]*models.Task, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.Task, error)
	ListByDoer(ctx context.Context, doerID string) ([]*models.Task, error)
	ListByStatus(ctx context.Context, status models.TaskStatus, limit, offset int) ([]*models.Task, error)
	CountActivePosted(ctx context.Context, requesterID string) (int, error)
	CountActiveAssigned(ctx context.Context, doerID string) (int, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]*models.Task, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, a *models.TaskApplication) error
	GetByID(ctx context.Context, id string) (*models.TaskApplication, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.TaskApplication, error)
	ListByDoer(ctx context.Context, doerID string) ([]*models.TaskApplication, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	Accept(ctx context.Context, taskID, applicationID string) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByTaskID(ctx context.Context, taskID string) (*models.Payment, error)
	MarkEscrowed(ctx context.Context, id string, at time.Time) error
	MarkReleased(ctx context.Context, id, providerTransferID string, at time.Time) error
	MarkRefunded(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string) error
	CountRecentRefundsAgainstDoer(ctx context.Context, doerID string, since time.Time) (int, error)
	CountTotalRefundsAgainstDoer(ctx context.Context, doerID string) (int, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	UpdateTrustLevel(ctx context.Context, userID string, level int) error
	SetAdminApprovedTier3(ctx context.Context, userID string, approved bool) error
	Suspend(ctx context.Context, userID string, at time.Time) error
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	GetByTaskAndReviewer(ctx context.Context, taskID, reviewerID string) (*models.Review, error)
	ListForUser(ctx context.Context, revieweeID string, limit, offset int) ([]*models.Review, error)
	AggregatesForUser(ctx context.Context, revieweeID string) (*repositories.ReviewAggregates, error)
}

type ReputationStore interface {
	Get(ctx context.Context, userID string) (*models.ReputationSummary, error)
	Upsert(ctx context.Context, s *models.ReputationSummary) error
	HistoryForDoer(ctx context.Context, doerID string) (*repositories.DoerHistory, error)
}

type AuditStore interface {
	Record(ctx context.Context, e *models.AuditEntry) error
	RecordModeration(ctx context.Context, e *models.ModerationLogEntry) error
	ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*models.AuditEntry, error)
	ListModerationForEntity(ctx context.Context, entityType, entityID string) ([]*models.ModerationLogEntry, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.TaskMessage) error
	ListByTask(ctx context.Context, taskID string, limit, offset int) ([]*models.TaskMessage, error)
}

// ReputationRecomputer refreshes a user's reputation summary and trust
// level after a lifecycle event that affects history.
type ReputationRecomputer interface {
	RecomputeForUser(ctx context.Context, userID string) error
}
