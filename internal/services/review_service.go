package services

import (
	"context"

	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/pkg/apperrors"
)

type ReviewService interface {
	Create(ctx context.Context, reviewerID, taskID string, req *dto.CreateReviewRequest) (*models.Review, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Review, error)
}

type ReviewServiceImpl struct {
	reviewRepo ReviewStore
	taskRepo   TaskStore
	reputation ReputationRecomputer
}

func NewReviewService(reviewRepo ReviewStore, taskRepo TaskStore, reputation ReputationRecomputer) ReviewService {
	return &ReviewServiceImpl{
		reviewRepo: reviewRepo,
		taskRepo:   taskRepo,
		reputation: reputation,
	}
}

// Create accepts one review per party per finished task. Either side of a
// completed or resolved task may review the other; the reviewee's
// reputation is recomputed afterward.
func (s *ReviewServiceImpl) Create(ctx context.Context, reviewerID, taskID string, req *dto.CreateReviewRequest) (*models.Review, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusCompleted && task.Status != models.TaskStatusResolved {
		return nil, apperrors.InvalidOperation("review", "task is not finished")
	}
	if task.AssignedDoerID == nil {
		return nil, apperrors.InvalidOperation("review", "task was never assigned")
	}

	var revieweeID string
	switch reviewerID {
	case task.RequesterID:
		revieweeID = *task.AssignedDoerID
	case *task.AssignedDoerID:
		revieweeID = task.RequesterID
	default:
		return nil, apperrors.ErrForbidden
	}

	review := &models.Review{
		TaskID:        taskID,
		ReviewerID:    reviewerID,
		RevieweeID:    revieweeID,
		Reliability:   req.Reliability,
		Quality:       req.Quality,
		Communication: req.Communication,
		Integrity:     req.Integrity,
		Comment:       req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.reputation.RecomputeForUser(ctx, revieweeID); err != nil {
		logger.CtxError(ctx, "reputation recompute failed", "user_id", revieweeID, "error", err)
	}
	return review, nil
}

func (s *ReviewServiceImpl) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Review, error) {
	return s.reviewRepo.ListForUser(ctx, userID, limit, offset)
}
