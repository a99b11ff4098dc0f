package services

import (
	"context"

	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/internal/trust"
	"taskmarket_backend/pkg/apperrors"
)

type ApplicationService interface {
	Apply(ctx context.Context, doerID, taskID string, req *dto.ApplyRequest) (*models.TaskApplication, error)
	Withdraw(ctx context.Context, doerID, applicationID string) error
	ListForTask(ctx context.Context, requesterID, taskID string) ([]*models.TaskApplication, error)
	ListMine(ctx context.Context, doerID string) ([]*models.TaskApplication, error)
}

type ApplicationServiceImpl struct {
	appRepo    ApplicationStore
	taskRepo   TaskStore
	userRepo   UserStore
	classifier *moderation.Classifier
}

func NewApplicationService(appRepo ApplicationStore, taskRepo TaskStore, userRepo UserStore, classifier *moderation.Classifier) ApplicationService {
	return &ApplicationServiceImpl{
		appRepo:    appRepo,
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		classifier: classifier,
	}
}

// Apply creates a pending application. Level-0 users may apply, since
// doing the work is how a new account builds history, but suspended
// accounts and requesters applying to their own tasks may not.
func (s *ApplicationServiceImpl) Apply(ctx context.Context, doerID, taskID string, req *dto.ApplyRequest) (*models.TaskApplication, error) {
	doer, err := s.userRepo.GetByID(ctx, doerID)
	if err != nil {
		return nil, err
	}
	if doer.Status != models.UserStatusActive {
		return nil, apperrors.ErrUserSuspended
	}
	if !trust.CanApplyForTasks(doer.TrustLevel) {
		return nil, apperrors.TrustLevelInsufficient("account may not apply for tasks")
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusPublished {
		return nil, apperrors.InvalidOperation("application", "task is not open for applications")
	}
	if task.RequesterID == doerID {
		return nil, apperrors.InvalidOperation("application", "cannot apply to your own task")
	}
	if task.PriceCents > trust.MaxTaskValueCents(doer.TrustLevel) {
		return nil, apperrors.TrustLevelInsufficient("task value exceeds your trust level maximum")
	}

	// Application messages are moderated like task text. Flagged content
	// goes through; assignment keeps a human in the loop anyway.
	if req.Message != "" {
		verdict := s.classifier.Classify(req.Message)
		if verdict.IsRejected() {
			return nil, apperrors.ContentRejected(verdict.Reason)
		}
		if verdict.IsFlagged() {
			logger.CtxWarn(ctx, "application message flagged",
				"task_id", taskID, "doer_id", doerID, "reason", verdict.Reason)
		}
	}

	app := &models.TaskApplication{
		TaskID:  taskID,
		DoerID:  doerID,
		Message: req.Message,
		Status:  models.ApplicationStatusPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ApplicationServiceImpl) Withdraw(ctx context.Context, doerID, applicationID string) error {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.DoerID != doerID {
		return apperrors.ErrForbidden
	}
	if app.Status != models.ApplicationStatusPending {
		return apperrors.InvalidOperation("application", "only pending applications can be withdrawn")
	}
	return s.appRepo.UpdateStatus(ctx, applicationID, models.ApplicationStatusWithdrawn)
}

func (s *ApplicationServiceImpl) ListForTask(ctx context.Context, requesterID, taskID string) ([]*models.TaskApplication, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	return s.appRepo.ListByTask(ctx, taskID)
}

func (s *ApplicationServiceImpl) ListMine(ctx context.Context, doerID string) ([]*models.TaskApplication, error) {
	return s.appRepo.ListByDoer(ctx, doerID)
}
