package services

import (
	"context"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/pkg/apperrors"
)

type MessageService interface {
	Send(ctx context.Context, senderID, taskID string, req *dto.SendMessageRequest) (*models.TaskMessage, error)
	List(ctx context.Context, userID, taskID string, limit, offset int) ([]*models.TaskMessage, error)
}

type MessageServiceImpl struct {
	messageRepo MessageStore
	taskRepo    TaskStore
	classifier  *moderation.Classifier
}

func NewMessageService(messageRepo MessageStore, taskRepo TaskStore, classifier *moderation.Classifier) MessageService {
	return &MessageServiceImpl{
		messageRepo: messageRepo,
		taskRepo:    taskRepo,
		classifier:  classifier,
	}
}

// Send stores an in-task message with contact information redacted before
// it ever touches the database. Only the two parties of an active task can
// message each other; escrow keeps coordination on-platform until the work
// is done.
func (s *MessageServiceImpl) Send(ctx context.Context, senderID, taskID string, req *dto.SendMessageRequest) (*models.TaskMessage, error) {
	task, err := s.requireParticipant(ctx, senderID, taskID)
	if err != nil {
		return nil, err
	}
	switch task.Status {
	case models.TaskStatusAssigned, models.TaskStatusInProgress, models.TaskStatusSubmitted, models.TaskStatusDisputed:
	default:
		return nil, apperrors.InvalidOperation("message", "task is not in an active state")
	}

	body := s.classifier.Redact(req.Body)
	message := &models.TaskMessage{
		TaskID:   taskID,
		SenderID: senderID,
		Body:     body,
		Redacted: body != req.Body,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessageServiceImpl) List(ctx context.Context, userID, taskID string, limit, offset int) ([]*models.TaskMessage, error) {
	if _, err := s.requireParticipant(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByTask(ctx, taskID, limit, offset)
}

func (s *MessageServiceImpl) requireParticipant(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	isRequester := task.RequesterID == userID
	isDoer := task.AssignedDoerID != nil && *task.AssignedDoerID == userID
	if !isRequester && !isDoer {
		return nil, apperrors.ErrForbidden
	}
	return task, nil
}
