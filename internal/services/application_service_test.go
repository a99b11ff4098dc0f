package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/pkg/apperrors"
)

type applicationServiceFixture struct {
	apps  *fakeApplicationStore
	tasks *fakeTaskStore
	users *fakeUserStore
	svc   ApplicationService
}

func newApplicationServiceFixture(t *testing.T) *applicationServiceFixture {
	t.Helper()
	f := &applicationServiceFixture{
		apps:  newFakeApplicationStore(),
		tasks: newFakeTaskStore(),
		users: newFakeUserStore(),
	}
	f.svc = NewApplicationService(f.apps, f.tasks, f.users, moderation.NewClassifier())
	return f
}

func (f *applicationServiceFixture) addDoer(id string, trustLevel int) *models.User {
	u := &models.User{
		Email:      id + "@example.com",
		Role:       models.UserRoleUser,
		Status:     models.UserStatusActive,
		TrustLevel: trustLevel,
	}
	u.ID = id
	return f.users.add(u)
}

func (f *applicationServiceFixture) seedPublished(requesterID string, priceCents int64) *models.Task {
	task := &models.Task{
		RequesterID:  requesterID,
		Title:        "Assemble bookshelf",
		Description:  "Need help assembling a flat-pack bookshelf this weekend.",
		Category:     "assembly",
		LocationType: models.LocationTypeInPerson,
		PriceCents:   priceCents,
		Status:       models.TaskStatusDraft,
		Deadline:     time.Now().AddDate(0, 0, 7),
	}
	_ = f.tasks.Create(context.Background(), task)
	f.tasks.tasks[task.ID].Status = models.TaskStatusPublished
	task.Status = models.TaskStatusPublished
	return task
}

func TestApply_CreatesPendingApplication(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("doer", 1)
	task := f.seedPublished("poster", 10_000)

	app, err := f.svc.Apply(ctx, "doer", task.ID, &dto.ApplyRequest{
		Message: "I have assembled dozens of these and can come by this weekend.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "doer", app.DoerID)
}

func TestApply_TaskValueAboveTierCap(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("doer", 0)
	// Level 0 caps out at $100; a $5,000 task is out of reach.
	task := f.seedPublished("poster", 500_000)

	_, err := f.svc.Apply(ctx, "doer", task.ID, &dto.ApplyRequest{})
	require.True(t, apperrors.Is(err, apperrors.ErrTrustLevelInsufficient))
	assert.Empty(t, f.apps.apps, "no application row for a blocked apply")
}

func TestApply_RejectedMessageNotStored(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("doer", 1)
	task := f.seedPublished("poster", 10_000)

	_, err := f.svc.Apply(ctx, "doer", task.ID, &dto.ApplyRequest{
		Message: "Reach me directly at 555-123-4567 and we can skip the platform.",
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeContentRejected, appErr.Code)
	assert.Empty(t, f.apps.apps, "rejected message must not be persisted")
}

func TestApply_FlaggedMessageGoesThrough(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("doer", 1)
	task := f.seedPublished("poster", 10_000)

	// Flagged content is logged but not blocked; the requester still picks
	// the winner by hand.
	app, err := f.svc.Apply(ctx, "doer", task.ID, &dto.ApplyRequest{
		Message: "Happy to help",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
}

func TestApply_OwnTask(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("poster", 1)
	task := f.seedPublished("poster", 10_000)

	_, err := f.svc.Apply(ctx, "poster", task.ID, &dto.ApplyRequest{})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)
}

func TestWithdraw_OnlyPending(t *testing.T) {
	f := newApplicationServiceFixture(t)
	ctx := context.Background()
	f.addDoer("doer", 1)
	task := f.seedPublished("poster", 10_000)

	app, err := f.svc.Apply(ctx, "doer", task.ID, &dto.ApplyRequest{})
	require.NoError(t, err)

	require.NoError(t, f.apps.UpdateStatus(ctx, app.ID, models.ApplicationStatusAccepted))
	err = f.svc.Withdraw(ctx, "doer", app.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)
}
