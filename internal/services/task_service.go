package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"taskmarket_backend/internal/email"
	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/payments"
	"taskmarket_backend/internal/repositories"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/internal/trust"
	"taskmarket_backend/pkg/apperrors"
)

type TaskService interface {
	Create(ctx context.Context, requesterID string, req *dto.CreateTaskRequest) (*models.Task, error)
	Get(ctx context.Context, taskID string) (*models.Task, error)
	List(ctx context.Context, req *dto.TaskFilterRequest) ([]*models.Task, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.Task, error)
	ListByDoer(ctx context.Context, doerID string) ([]*models.Task, error)
	ListQueue(ctx context.Context, status models.TaskStatus, limit, offset int) ([]*models.Task, error)
	AuditTrail(ctx context.Context, taskID string) ([]*models.AuditEntry, []*models.ModerationLogEntry, error)
	Update(ctx context.Context, actorID, taskID string, req *dto.UpdateTaskRequest) (*models.Task, error)
	SubmitForReview(ctx context.Context, actorID, taskID string) (*models.Task, error)
	Moderate(ctx context.Context, adminID, taskID string, req *dto.ModerateTaskRequest) (*models.Task, error)
	Assign(ctx context.Context, requesterID, taskID, applicationID string) (*models.Task, error)
	Start(ctx context.Context, doerID, taskID string) (*models.Task, error)
	SubmitWork(ctx context.Context, doerID, taskID string) (*models.Task, error)
	Approve(ctx context.Context, requesterID, taskID string) (*models.Task, error)
	Dispute(ctx context.Context, requesterID, taskID, reason string) (*models.Task, error)
	Resolve(ctx context.Context, adminID, taskID string, req *dto.ResolveDisputeRequest) (*models.Task, error)
	Cancel(ctx context.Context, actorID, taskID string) (*models.Task, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type TaskServiceImpl struct {
	taskRepo    TaskStore
	appRepo     ApplicationStore
	paymentRepo PaymentStore
	userRepo    UserStore
	auditRepo   AuditStore
	classifier  *moderation.Classifier
	gateway     payments.Gateway
	reputation  ReputationRecomputer
	notifier    *email.Notifier
}

func NewTaskService(
	taskRepo TaskStore,
	appRepo ApplicationStore,
	paymentRepo PaymentStore,
	userRepo UserStore,
	auditRepo AuditStore,
	classifier *moderation.Classifier,
	gateway payments.Gateway,
	reputation ReputationRecomputer,
	notifier *email.Notifier,
) TaskService {
	return &TaskServiceImpl{
		taskRepo:    taskRepo,
		appRepo:     appRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		classifier:  classifier,
		gateway:     gateway,
		reputation:  reputation,
		notifier:    notifier,
	}
}

// Create persists a new draft after the trust-level posting gates pass.
// Drafts are invisible to everyone but the requester until they clear
// moderation.
func (s *TaskServiceImpl) Create(ctx context.Context, requesterID string, req *dto.CreateTaskRequest) (*models.Task, error) {
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.Status != models.UserStatusActive {
		return nil, apperrors.ErrUserSuspended
	}
	if !trust.CanPostTasks(requester.TrustLevel) {
		return nil, apperrors.TrustLevelInsufficient("posting tasks requires trust level 1")
	}
	if req.PriceCents < models.MinTaskPriceCents {
		return nil, apperrors.BadRequest(fmt.Sprintf("price must be at least %d cents", models.MinTaskPriceCents))
	}
	if cap := trust.MaxTaskValueCents(requester.TrustLevel); req.PriceCents > cap {
		return nil, apperrors.TrustLevelInsufficient(
			fmt.Sprintf("price exceeds the %d cent limit for trust level %d", cap, requester.TrustLevel))
	}

	if limit, ok := trust.MaxActivePosted(requester.TrustLevel); ok {
		active, err := s.taskRepo.CountActivePosted(ctx, requesterID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if active >= limit {
			return nil, apperrors.LimitExceeded("trust",
				fmt.Sprintf("at most %d active tasks allowed at trust level %d", limit, requester.TrustLevel))
		}
	}

	task := &models.Task{
		RequesterID:     requesterID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		LocationType:    models.LocationType(req.LocationType),
		LocationAddress: req.LocationAddress,
		PriceCents:      req.PriceCents,
		Status:          models.TaskStatusDraft,
		Deadline:        req.Deadline,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.audit(ctx, &requesterID, "task.created", task.ID, "", string(task.Status))
	return task, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, taskID string) (*models.Task, error) {
	return s.taskRepo.GetByID(ctx, taskID)
}

func (s *TaskServiceImpl) List(ctx context.Context, req *dto.TaskFilterRequest) ([]*models.Task, error) {
	return s.taskRepo.ListPublished(ctx, repositories.TaskFilter{
		Category:     req.Category,
		LocationType: models.LocationType(req.LocationType),
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
}

func (s *TaskServiceImpl) ListByRequester(ctx context.Context, requesterID string) ([]*models.Task, error) {
	return s.taskRepo.ListByRequester(ctx, requesterID)
}

func (s *TaskServiceImpl) ListByDoer(ctx context.Context, doerID string) ([]*models.Task, error) {
	return s.taskRepo.ListByDoer(ctx, doerID)
}

// ListQueue serves the admin backlogs. Only the two states an admin acts
// on are exposed; anything else is reachable through the public listing.
func (s *TaskServiceImpl) ListQueue(ctx context.Context, status models.TaskStatus, limit, offset int) ([]*models.Task, error) {
	if status != models.TaskStatusPendingReview && status != models.TaskStatusDisputed {
		return nil, apperrors.BadRequest("queue status must be pending_review or disputed")
	}
	return s.taskRepo.ListByStatus(ctx, status, limit, offset)
}

// AuditTrail returns the audit and moderation history of one task.
func (s *TaskServiceImpl) AuditTrail(ctx context.Context, taskID string) ([]*models.AuditEntry, []*models.ModerationLogEntry, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, nil, err
	}
	entries, err := s.auditRepo.ListForEntity(ctx, "task", taskID, 200)
	if err != nil {
		return nil, nil, err
	}
	moderation, err := s.auditRepo.ListModerationForEntity(ctx, "task", taskID)
	if err != nil {
		return nil, nil, err
	}
	return entries, moderation, nil
}

// Update edits a draft. Anything past draft is immutable except through
// lifecycle operations.
func (s *TaskServiceImpl) Update(ctx context.Context, actorID, taskID string, req *dto.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != actorID {
		return nil, apperrors.ErrForbidden
	}
	if task.Status != models.TaskStatusDraft {
		return nil, apperrors.InvalidOperation("task", "only drafts can be edited")
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.LocationAddress != nil {
		task.LocationAddress = req.LocationAddress
	}
	if req.PriceCents != nil {
		task.PriceCents = *req.PriceCents
	}
	if req.Deadline != nil {
		task.Deadline = *req.Deadline
	}

	if task.PriceCents < models.MinTaskPriceCents {
		return nil, apperrors.BadRequest(fmt.Sprintf("price must be at least %d cents", models.MinTaskPriceCents))
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SubmitForReview moves a draft into review and immediately runs the
// automated classifier. Clean content publishes in the same call; rejected
// content lands in the terminal rejected state and surfaces ContentRejected;
// flagged content stays in pending_review for an admin and surfaces
// ContentFlagged, which maps to 202 rather than a failure code.
func (s *TaskServiceImpl) SubmitForReview(ctx context.Context, actorID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != actorID {
		return nil, apperrors.ErrForbidden
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusPendingReview); err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, task.Status, models.TaskStatusPendingReview); err != nil {
		return nil, err
	}
	s.audit(ctx, &actorID, "task.submitted_for_review", task.ID, string(task.Status), string(models.TaskStatusPendingReview))
	task.Status = models.TaskStatusPendingReview

	requester, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	// Joined with a space so the short-text rule sees one line.
	verdict := s.classifier.Classify(task.Title + " " + task.Description)
	if verdict.IsClean() {
		if priceVerdict := s.classifier.CheckPrice(task.PriceCents); !priceVerdict.IsClean() {
			verdict = priceVerdict
		}
	}

	switch {
	case verdict.IsRejected():
		if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusPendingReview, models.TaskStatusRejected); err != nil {
			return nil, err
		}
		task.Status = models.TaskStatusRejected
		task.RejectionReason = &verdict.Reason
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return nil, err
		}
		s.logModeration(ctx, task.ID, "rejected", &verdict.Reason, nil)
		s.audit(ctx, nil, "task.rejected", task.ID, string(models.TaskStatusPendingReview), string(task.Status))
		s.notifier.TaskRejected(requester.Email, task.Title, verdict.Reason)
		return task, apperrors.ContentRejected(verdict.Reason)

	case verdict.IsFlagged():
		task.ModerationNote = &verdict.Reason
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return nil, err
		}
		s.logModeration(ctx, task.ID, "flagged", &verdict.Reason, nil)
		s.notifier.TaskFlagged(requester.Email, task.Title)
		return task, apperrors.ContentFlagged(verdict.Reason)

	default:
		if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusPendingReview, models.TaskStatusPublished); err != nil {
			return nil, err
		}
		task.Status = models.TaskStatusPublished
		s.logModeration(ctx, task.ID, "approved", nil, nil)
		s.audit(ctx, nil, "task.published", task.ID, string(models.TaskStatusPendingReview), string(task.Status))
		s.notifier.TaskPublished(requester.Email, task.Title)
		return task, nil
	}
}

// Moderate is the admin decision on a flagged task sitting in
// pending_review.
func (s *TaskServiceImpl) Moderate(ctx context.Context, adminID, taskID string, req *dto.ModerateTaskRequest) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusPendingReview {
		return nil, apperrors.InvalidOperation("task", "task is not awaiting review")
	}

	requester, err := s.userRepo.GetByID(ctx, task.RequesterID)
	if err != nil {
		return nil, err
	}

	if req.Decision == "approve" {
		if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusPendingReview, models.TaskStatusPublished); err != nil {
			return nil, err
		}
		task.Status = models.TaskStatusPublished
		s.logModeration(ctx, task.ID, "approved", nil, &adminID)
		s.audit(ctx, &adminID, "task.published", task.ID, string(models.TaskStatusPendingReview), string(task.Status))
		s.notifier.TaskPublished(requester.Email, task.Title)
		return task, nil
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusPendingReview, models.TaskStatusRejected); err != nil {
		return nil, err
	}
	task.Status = models.TaskStatusRejected
	if req.Reason != "" {
		task.RejectionReason = &req.Reason
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return nil, err
		}
	}
	s.logModeration(ctx, task.ID, "rejected", &req.Reason, &adminID)
	s.audit(ctx, &adminID, "task.rejected", task.ID, string(models.TaskStatusPendingReview), string(task.Status))
	s.notifier.TaskRejected(requester.Email, task.Title, req.Reason)
	return task, nil
}

// Assign accepts one application and escrows the full charge. The hold is
// placed before anything is persisted: if the provider declines, no state
// changes. If the task was concurrently taken, the hold is voided.
func (s *TaskServiceImpl) Assign(ctx context.Context, requesterID, taskID, applicationID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusAssigned); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.TaskID != task.ID {
		return nil, apperrors.BadRequest("application does not belong to this task")
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, apperrors.InvalidOperation("task", "application is no longer pending")
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.ProviderCustomerID == nil {
		return nil, apperrors.PaymentFailure("requester has no payment method on file")
	}

	doer, err := s.userRepo.GetByID(ctx, app.DoerID)
	if err != nil {
		return nil, err
	}
	if doer.Status != models.UserStatusActive {
		return nil, apperrors.ErrUserSuspended
	}
	assigned, err := s.taskRepo.CountActiveAssigned(ctx, doer.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if limit := trust.MaxConcurrentAssigned(doer.TrustLevel); assigned >= limit {
		return nil, apperrors.LimitExceeded("trust",
			fmt.Sprintf("doer already holds %d tasks, the limit at trust level %d", assigned, doer.TrustLevel))
	}

	fees := models.CalculateFees(task.PriceCents)
	authorization, err := s.gateway.AuthorizeEscrow(ctx, *requester.ProviderCustomerID,
		fees.TotalChargedCents, escrowKey(task.ID))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &models.Payment{
		TaskID:            task.ID,
		RequesterID:       requesterID,
		DoerID:            doer.ID,
		TaskPriceCents:    fees.TaskPriceCents,
		PlatformFeeCents:  fees.PlatformFeeCents,
		ProcessorFeeCents: fees.ProcessorFeeCents,
		TotalChargedCents: fees.TotalChargedCents,
		DoerPayoutCents:   fees.DoerPayoutCents,
		ProviderPaymentID: authorization.ProviderPaymentID,
		Status:            models.PaymentStatusEscrowed,
		EscrowedAt:        &now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.voidAuthorization(ctx, authorization.ProviderPaymentID, task.ID)
		return nil, apperrors.InternalError(err)
	}

	if err := s.appRepo.Accept(ctx, task.ID, app.ID); err != nil {
		s.rollbackEscrow(ctx, authorization.ProviderPaymentID, payment.ID, task.ID)
		return nil, err
	}

	if err := s.taskRepo.AssignDoer(ctx, task.ID, doer.ID); err != nil {
		s.rollbackEscrow(ctx, authorization.ProviderPaymentID, payment.ID, task.ID)
		return nil, err
	}

	task.Status = models.TaskStatusAssigned
	task.AssignedDoerID = &doer.ID
	s.audit(ctx, &requesterID, "task.assigned", task.ID, string(models.TaskStatusPublished), string(task.Status))
	s.notifier.ApplicationAccepted(doer.Email, task.Title)
	return task, nil
}

// Start captures the escrow hold and begins the work.
func (s *TaskServiceImpl) Start(ctx context.Context, doerID, taskID string) (*models.Task, error) {
	task, err := s.requireDoer(ctx, doerID, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusInProgress); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByTaskID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Capture(ctx, payment.ProviderPaymentID, captureKey(task.ID)); err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusAssigned, models.TaskStatusInProgress); err != nil {
		return nil, err
	}
	task.Status = models.TaskStatusInProgress
	s.audit(ctx, &doerID, "task.started", task.ID, string(models.TaskStatusAssigned), string(task.Status))
	return task, nil
}

func (s *TaskServiceImpl) SubmitWork(ctx context.Context, doerID, taskID string) (*models.Task, error) {
	task, err := s.requireDoer(ctx, doerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusInProgress, models.TaskStatusSubmitted); err != nil {
		if task.Status != models.TaskStatusInProgress {
			return nil, apperrors.InvalidTransition(string(task.Status), string(models.TaskStatusSubmitted))
		}
		return nil, err
	}
	task.Status = models.TaskStatusSubmitted

	s.audit(ctx, &doerID, "task.submitted", task.ID, string(models.TaskStatusInProgress), string(task.Status))
	if requester, err := s.userRepo.GetByID(ctx, task.RequesterID); err == nil {
		s.notifier.WorkSubmitted(requester.Email, task.Title)
	}
	return task, nil
}

// Approve releases the payout. The transfer happens before the status is
// persisted; a conflict after a successful transfer is logged for
// reconciliation, and the deterministic transfer key makes a retry safe.
func (s *TaskServiceImpl) Approve(ctx context.Context, requesterID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusCompleted); err != nil {
		return nil, err
	}
	if task.AssignedDoerID == nil {
		return nil, apperrors.InvalidOperation("task", "task has no assigned doer")
	}

	doer, err := s.userRepo.GetByID(ctx, *task.AssignedDoerID)
	if err != nil {
		return nil, err
	}
	if doer.ProviderPayoutID == nil {
		return nil, apperrors.PaymentFailure("doer has no payout destination on file")
	}

	payment, err := s.paymentRepo.GetByTaskID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.gateway.Transfer(ctx, *doer.ProviderPayoutID, payment.DoerPayoutCents, transferKey(task.ID))
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.MarkReleased(ctx, payment.ID, transfer.ProviderTransferID, time.Now()); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusSubmitted, models.TaskStatusCompleted); err != nil {
		logger.CtxError(ctx, "payout released but task transition failed, needs reconciliation",
			"task_id", task.ID, "error", err)
		return nil, err
	}
	task.Status = models.TaskStatusCompleted

	s.audit(ctx, &requesterID, "task.completed", task.ID, string(models.TaskStatusSubmitted), string(task.Status))
	if err := s.reputation.RecomputeForUser(ctx, doer.ID); err != nil {
		logger.CtxError(ctx, "reputation recompute failed", "user_id", doer.ID, "error", err)
	}
	s.notifier.PaymentReleased(doer.Email, task.Title)
	return task, nil
}

func (s *TaskServiceImpl) Dispute(ctx context.Context, requesterID, taskID, reason string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.RequesterID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusSubmitted, models.TaskStatusDisputed); err != nil {
		if task.Status != models.TaskStatusSubmitted {
			return nil, apperrors.InvalidTransition(string(task.Status), string(models.TaskStatusDisputed))
		}
		return nil, err
	}
	task.Status = models.TaskStatusDisputed

	oldNew, _ := json.Marshal(map[string]string{"reason": reason})
	s.auditRaw(ctx, &requesterID, "task.disputed", task.ID, nil, oldNew)

	if task.AssignedDoerID != nil {
		if doer, err := s.userRepo.GetByID(ctx, *task.AssignedDoerID); err == nil {
			s.notifier.DisputeOpened(doer.Email, task.Title)
		}
	}
	return task, nil
}

// Resolve closes a dispute. "release" pays the doer, "refund" returns the
// captured funds to the requester; the platform fee is absorbed either way.
// A refund counts as a dispute loss for the doer and can trip the
// suspension policy.
func (s *TaskServiceImpl) Resolve(ctx context.Context, adminID, taskID string, req *dto.ResolveDisputeRequest) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusResolved); err != nil {
		return nil, err
	}
	if task.AssignedDoerID == nil {
		return nil, apperrors.InvalidOperation("task", "task has no assigned doer")
	}

	doer, err := s.userRepo.GetByID(ctx, *task.AssignedDoerID)
	if err != nil {
		return nil, err
	}
	payment, err := s.paymentRepo.GetByTaskID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	if req.Outcome == "release" {
		if doer.ProviderPayoutID == nil {
			return nil, apperrors.PaymentFailure("doer has no payout destination on file")
		}
		transfer, err := s.gateway.Transfer(ctx, *doer.ProviderPayoutID, payment.DoerPayoutCents, transferKey(task.ID))
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.MarkReleased(ctx, payment.ID, transfer.ProviderTransferID, time.Now()); err != nil {
			return nil, apperrors.InternalError(err)
		}
	} else {
		if err := s.gateway.Refund(ctx, payment.ProviderPaymentID, payment.TotalChargedCents, refundKey(task.ID)); err != nil {
			return nil, err
		}
		if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, time.Now()); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusDisputed, models.TaskStatusResolved); err != nil {
		logger.CtxError(ctx, "dispute funds moved but task transition failed, needs reconciliation",
			"task_id", task.ID, "error", err)
		return nil, err
	}
	task.Status = models.TaskStatusResolved

	outcome, _ := json.Marshal(map[string]string{"outcome": req.Outcome, "note": req.Note})
	s.auditRaw(ctx, &adminID, "task.resolved", task.ID, nil, outcome)

	if err := s.reputation.RecomputeForUser(ctx, doer.ID); err != nil {
		logger.CtxError(ctx, "reputation recompute failed", "user_id", doer.ID, "error", err)
	}
	s.notifier.DisputeResolved(doer.Email, task.Title, req.Outcome)

	if req.Outcome == "refund" {
		if err := s.checkSuspension(ctx, doer); err != nil {
			logger.CtxError(ctx, "suspension check failed", "user_id", doer.ID, "error", err)
		}
	}
	return task, nil
}

// Cancel withdraws a task. Published tasks cancel freely; assigned tasks
// void the escrow hold first. The requester can always cancel; the
// assigned doer can abandon an assigned task, which counts against their
// history.
func (s *TaskServiceImpl) Cancel(ctx context.Context, actorID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isRequester := task.RequesterID == actorID
	isDoer := task.AssignedDoerID != nil && *task.AssignedDoerID == actorID
	if !isRequester && !isDoer {
		return nil, apperrors.ErrForbidden
	}
	if isDoer && task.Status != models.TaskStatusAssigned {
		return nil, apperrors.InvalidOperation("task", "doer can only abandon an assigned task")
	}
	if _, err := task.Status.TransitionTo(models.TaskStatusCancelled); err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusAssigned {
		payment, err := s.paymentRepo.GetByTaskID(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if err := s.gateway.CancelAuthorization(ctx, payment.ProviderPaymentID, voidKey(task.ID)); err != nil {
			return nil, err
		}
		if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, time.Now()); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	prev := task.Status
	if err := s.taskRepo.UpdateStatus(ctx, task.ID, prev, models.TaskStatusCancelled); err != nil {
		return nil, err
	}
	task.Status = models.TaskStatusCancelled
	s.audit(ctx, &actorID, "task.cancelled", task.ID, string(prev), string(task.Status))

	if isDoer {
		if err := s.reputation.RecomputeForUser(ctx, actorID); err != nil {
			logger.CtxError(ctx, "reputation recompute failed", "user_id", actorID, "error", err)
		}
	}
	return task, nil
}

// ExpireOverdue sweeps published tasks whose deadline has passed. Races
// with a concurrent assignment are fine: the stale-state guard skips any
// task that moved on.
func (s *TaskServiceImpl) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.taskRepo.ListExpirable(ctx, now, 100)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, task := range tasks {
		err := s.taskRepo.UpdateStatus(ctx, task.ID, models.TaskStatusPublished, models.TaskStatusExpired)
		if apperrors.Is(err, apperrors.ErrConflict) {
			continue
		}
		if err != nil {
			return expired, err
		}
		s.audit(ctx, nil, "task.expired", task.ID, string(models.TaskStatusPublished), string(models.TaskStatusExpired))
		expired++
	}
	return expired, nil
}

func (s *TaskServiceImpl) requireDoer(ctx context.Context, doerID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedDoerID == nil || *task.AssignedDoerID != doerID {
		return nil, apperrors.ErrForbidden
	}
	return task, nil
}

// checkSuspension applies the repeated-loss policy: enough lost disputes
// inside the window suspends the account.
func (s *TaskServiceImpl) checkSuspension(ctx context.Context, doer *models.User) error {
	since := time.Now().AddDate(0, 0, -trust.SuspensionWindowDays)
	losses, err := s.paymentRepo.CountRecentRefundsAgainstDoer(ctx, doer.ID, since)
	if err != nil {
		return err
	}
	if !trust.ShouldSuspend(losses) {
		return nil
	}

	if err := s.userRepo.Suspend(ctx, doer.ID, time.Now()); err != nil {
		return err
	}
	s.audit(ctx, nil, "user.suspended", doer.ID, string(models.UserStatusActive), string(models.UserStatusSuspended))
	s.notifier.AccountSuspended(doer.Email)
	logger.CtxWarn(ctx, "user suspended after repeated dispute losses",
		"user_id", doer.ID, "recent_losses", losses)
	return nil
}

// rollbackEscrow voids the hold and fails the payment row after a lost
// assignment race.
func (s *TaskServiceImpl) rollbackEscrow(ctx context.Context, providerPaymentID, paymentID, taskID string) {
	s.voidAuthorization(ctx, providerPaymentID, taskID)
	if err := s.paymentRepo.MarkFailed(ctx, paymentID); err != nil {
		logger.CtxError(ctx, "failed to mark payment failed after rollback",
			"payment_id", paymentID, "error", err)
	}
}

func (s *TaskServiceImpl) voidAuthorization(ctx context.Context, providerPaymentID, taskID string) {
	if err := s.gateway.CancelAuthorization(ctx, providerPaymentID, voidKey(taskID)); err != nil {
		logger.CtxError(ctx, "failed to void escrow authorization, needs reconciliation",
			"task_id", taskID, "error", err)
	}
}

func (s *TaskServiceImpl) audit(ctx context.Context, actorID *string, action, entityID, oldStatus, newStatus string) {
	var oldVal, newVal datatypes.JSON
	if oldStatus != "" {
		oldVal, _ = json.Marshal(map[string]string{"status": oldStatus})
	}
	if newStatus != "" {
		newVal, _ = json.Marshal(map[string]string{"status": newStatus})
	}
	s.auditRaw(ctx, actorID, action, entityID, oldVal, newVal)
}

func (s *TaskServiceImpl) auditRaw(ctx context.Context, actorID *string, action, entityID string, oldVal, newVal datatypes.JSON) {
	entry := &models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: "task",
		EntityID:   entityID,
		OldValue:   oldVal,
		NewValue:   newVal,
	}
	if action == "user.suspended" {
		entry.EntityType = "user"
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		logger.CtxError(ctx, "failed to record audit entry", "action", action, "error", err)
	}
}

func (s *TaskServiceImpl) logModeration(ctx context.Context, taskID, action string, reason, moderatorID *string) {
	err := s.auditRepo.RecordModeration(ctx, &models.ModerationLogEntry{
		EntityType:  "task",
		EntityID:    taskID,
		Action:      action,
		Reason:      reason,
		ModeratorID: moderatorID,
	})
	if err != nil {
		logger.CtxError(ctx, "failed to record moderation entry", "task_id", taskID, "error", err)
	}
}

// Idempotency keys are deterministic per task and operation so a retried
// call can never double-move money.
func escrowKey(taskID string) string   { return "escrow:" + taskID }
func captureKey(taskID string) string  { return "capture:" + taskID }
func transferKey(taskID string) string { return "transfer:" + taskID }
func refundKey(taskID string) string   { return "refund:" + taskID }
func voidKey(taskID string) string     { return "void:" + taskID }
