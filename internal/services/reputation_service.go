package services

import (
	"context"
	"time"

	"taskmarket_backend/internal/cache"
	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/trust"
)

type ReputationService interface {
	GetSummary(ctx context.Context, userID string) (*models.ReputationSummary, error)
	RecomputeForUser(ctx context.Context, userID string) error
}

type ReputationServiceImpl struct {
	reputationRepo ReputationStore
	reviewRepo     ReviewStore
	paymentRepo    PaymentStore
	userRepo       UserStore
	cache          *cache.ReputationCache
}

func NewReputationService(
	reputationRepo ReputationStore,
	reviewRepo ReviewStore,
	paymentRepo PaymentStore,
	userRepo UserStore,
	reputationCache *cache.ReputationCache,
) ReputationService {
	return &ReputationServiceImpl{
		reputationRepo: reputationRepo,
		reviewRepo:     reviewRepo,
		paymentRepo:    paymentRepo,
		userRepo:       userRepo,
		cache:          reputationCache,
	}
}

// GetSummary serves from cache when warm, falling back to the stored
// summary. A user with no history gets a zero-value summary, not an error.
func (s *ReputationServiceImpl) GetSummary(ctx context.Context, userID string) (*models.ReputationSummary, error) {
	if s.cache != nil {
		if summary, err := s.cache.Get(ctx, userID); err == nil && summary != nil {
			return summary, nil
		}
	}

	summary, err := s.reputationRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return &models.ReputationSummary{UserID: userID}, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			logger.CtxWarn(ctx, "failed to cache reputation summary", "user_id", userID, "error", err)
		}
	}
	return summary, nil
}

// RecomputeForUser rebuilds the summary from task history, review
// aggregates and dispute outcomes, then re-evaluates and persists the
// trust level. Called after completions, reviews, dispute resolutions,
// and doer cancellations.
func (s *ReputationServiceImpl) RecomputeForUser(ctx context.Context, userID string) error {
	history, err := s.reputationRepo.HistoryForDoer(ctx, userID)
	if err != nil {
		return err
	}
	aggregates, err := s.reviewRepo.AggregatesForUser(ctx, userID)
	if err != nil {
		return err
	}
	disputesLost, err := s.paymentRepo.CountTotalRefundsAgainstDoer(ctx, userID)
	if err != nil {
		return err
	}

	summary := &models.ReputationSummary{
		UserID:          userID,
		TotalCompleted:  history.Completed,
		CancelledAsDoer: history.Cancelled,
		DisputesLost:    disputesLost,
	}

	engagements := history.Completed + history.Cancelled + disputesLost
	if engagements > 0 {
		summary.CompletionRate = float64(history.Completed) / float64(engagements)
	}

	summary.ReviewCount = aggregates.Count
	summary.AvgReliability = aggregates.AvgReliability
	summary.AvgQuality = aggregates.AvgQuality
	summary.AvgCommunication = aggregates.AvgCommunication
	summary.AvgIntegrity = aggregates.AvgIntegrity
	if aggregates.Count > 0 {
		summary.PositiveReviewRate = float64(aggregates.PositiveCount) / float64(aggregates.Count)
	}

	if err := s.reputationRepo.Upsert(ctx, summary); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			logger.CtxWarn(ctx, "failed to cache reputation summary", "user_id", userID, "error", err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	level := trust.Evaluate(summary, user.AccountAgeDays(time.Now()), user.AdminApprovedTier3)
	if level != user.TrustLevel {
		if err := s.userRepo.UpdateTrustLevel(ctx, userID, level); err != nil {
			return err
		}
		logger.CtxInfo(ctx, "trust level changed",
			"user_id", userID, "from", user.TrustLevel, "to", level)
	}
	return nil
}
