package services

import (
	"context"
	"time"

	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/pkg/apperrors"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	GetPublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	SetStatus(ctx context.Context, adminID, userID string, req *dto.SetUserStatusRequest) error
	SetTier3Approval(ctx context.Context, adminID, userID string, approved bool) error
}

type UserServiceImpl struct {
	userRepo   UserStore
	auditRepo  AuditStore
	reputation ReputationRecomputer
}

func NewUserService(userRepo UserStore, auditRepo AuditStore, reputation ReputationRecomputer) UserService {
	return &UserServiceImpl{
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		reputation: reputation,
	}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserServiceImpl) GetPublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Public()
	return &profile, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// SetStatus is the admin override for account standing: lift a suspension,
// suspend manually, or ban outright.
func (s *UserServiceImpl) SetStatus(ctx context.Context, adminID, userID string, req *dto.SetUserStatusRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	status := models.UserStatus(req.Status)
	if status == user.Status {
		return nil
	}

	if status == models.UserStatusSuspended {
		err = s.userRepo.Suspend(ctx, userID, time.Now())
	} else {
		err = s.userRepo.UpdateStatus(ctx, userID, status)
	}
	if err != nil {
		return err
	}

	s.recordStatusChange(ctx, adminID, userID, user.Status, status)
	return nil
}

// SetTier3Approval grants or revokes the admin sign-off that tier 3
// requires, then re-evaluates the trust level immediately.
func (s *UserServiceImpl) SetTier3Approval(ctx context.Context, adminID, userID string, approved bool) error {
	if err := s.userRepo.SetAdminApprovedTier3(ctx, userID, approved); err != nil {
		return err
	}

	action := "user.tier3_approved"
	if !approved {
		action = "user.tier3_revoked"
	}
	if err := s.auditRepo.Record(ctx, &models.AuditEntry{
		ActorID:    &adminID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
	}); err != nil {
		logger.CtxError(ctx, "failed to record audit entry", "action", action, "error", err)
	}

	if err := s.reputation.RecomputeForUser(ctx, userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *UserServiceImpl) recordStatusChange(ctx context.Context, adminID, userID string, from, to models.UserStatus) {
	oldVal := []byte(`{"status":"` + string(from) + `"}`)
	newVal := []byte(`{"status":"` + string(to) + `"}`)
	if err := s.auditRepo.Record(ctx, &models.AuditEntry{
		ActorID:    &adminID,
		Action:     "user.status_changed",
		EntityType: "user",
		EntityID:   userID,
		OldValue:   oldVal,
		NewValue:   newVal,
	}); err != nil {
		logger.CtxError(ctx, "failed to record audit entry", "action", "user.status_changed", "error", err)
	}
}
