package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket_backend/pkg/apperrors"
)

var allStatuses = []TaskStatus{
	TaskStatusDraft, TaskStatusPendingReview, TaskStatusPublished,
	TaskStatusAssigned, TaskStatusInProgress, TaskStatusSubmitted,
	TaskStatusCompleted, TaskStatusDisputed, TaskStatusResolved,
	TaskStatusCancelled, TaskStatusExpired, TaskStatusRejected,
}

func TestTransitionTo_AllowedEdges(t *testing.T) {
	for from, targets := range taskTransitions {
		for _, to := range targets {
			got, err := from.TransitionTo(to)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, got)
		}
	}
}

func TestTransitionTo_RejectsEverythingElse(t *testing.T) {
	allowed := func(from, to TaskStatus) bool {
		for _, a := range taskTransitions[from] {
			if a == to {
				return true
			}
		}
		return false
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if allowed(from, to) {
				continue
			}
			got, err := from.TransitionTo(to)
			require.Error(t, err, "%s -> %s must be rejected", from, to)
			assert.Equal(t, from, got, "failed transition must not move the status")

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeInvalidTransition, appErr.Code)
		}
	}
}

func TestTransitionTo_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range allStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range allStatuses {
			_, err := from.TransitionTo(to)
			assert.Error(t, err, "terminal %s must not transition to %s", from, to)
		}
	}
}

func TestTransitionTo_SelfLoopsRejected(t *testing.T) {
	for _, s := range allStatuses {
		_, err := s.TransitionTo(s)
		assert.Error(t, err, "%s -> %s", s, s)
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[TaskStatus]bool{
		TaskStatusCompleted: true,
		TaskStatusResolved:  true,
		TaskStatusCancelled: true,
		TaskStatusExpired:   true,
		TaskStatusRejected:  true,
	}
	for _, s := range allStatuses {
		assert.Equal(t, terminal[s], s.IsTerminal(), "%s", s)
		if terminal[s] {
			assert.Empty(t, taskTransitions[s], "terminal %s must have no edges", s)
		}
	}
}

func TestParseTaskStatus_RoundTrip(t *testing.T) {
	for _, s := range allStatuses {
		assert.Equal(t, s, ParseTaskStatus(s.String()))
	}
}

func TestParseTaskStatus_Unknown(t *testing.T) {
	for _, raw := range []string{"", "Draft", "DRAFT", "archived", "unknown", "in-progress"} {
		assert.Equal(t, TaskStatusUnknown, ParseTaskStatus(raw), "%q", raw)
	}
}

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, TaskStatusPendingReview.CanTransitionTo(TaskStatusPublished))
	assert.True(t, TaskStatusPendingReview.CanTransitionTo(TaskStatusRejected))
	assert.False(t, TaskStatusDraft.CanTransitionTo(TaskStatusPublished))
	assert.False(t, TaskStatusUnknown.CanTransitionTo(TaskStatusDraft))
}
