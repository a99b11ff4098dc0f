package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket_backend/internal/email"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/payments"
	"taskmarket_backend/internal/repositories"
	"taskmarket_backend/internal/services/dto"
	"taskmarket_backend/pkg/apperrors"
)

// --- in-memory fakes ---

type fakeTaskStore struct {
	tasks      map[string]*models.Task
	nextID     int
	failAssign bool
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[string]*models.Task{}}
}

func (f *fakeTaskStore) Create(_ context.Context, t *models.Task) error {
	f.nextID++
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	t.CreatedAt = time.Now()
	copied := *t
	f.tasks[t.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id string) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperrors.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTaskStore) Update(_ context.Context, t *models.Task) error {
	stored, ok := f.tasks[t.ID]
	if !ok {
		return apperrors.ErrTaskNotFound
	}
	status := stored.Status
	copied := *t
	copied.Status = status
	f.tasks[t.ID] = &copied
	return nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, id string, prev, next models.TaskStatus) error {
	t, ok := f.tasks[id]
	if !ok || t.Status != prev {
		return apperrors.ErrConflict
	}
	t.Status = next
	return nil
}

func (f *fakeTaskStore) AssignDoer(_ context.Context, id, doerID string) error {
	t, ok := f.tasks[id]
	if f.failAssign || !ok || t.Status != models.TaskStatusPublished {
		return apperrors.ErrConflict
	}
	t.Status = models.TaskStatusAssigned
	t.AssignedDoerID = &doerID
	return nil
}

func (f *fakeTaskStore) ListPublished(_ context.Context, _ repositories.TaskFilter) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.Status == models.TaskStatusPublished {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByRequester(_ context.Context, requesterID string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.RequesterID == requesterID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByDoer(_ context.Context, doerID string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.AssignedDoerID != nil && *t.AssignedDoerID == doerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByStatus(_ context.Context, status models.TaskStatus, _, _ int) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CountActivePosted(_ context.Context, requesterID string) (int, error) {
	count := 0
	for _, t := range f.tasks {
		if t.RequesterID != requesterID {
			continue
		}
		switch t.Status {
		case models.TaskStatusPendingReview, models.TaskStatusPublished, models.TaskStatusAssigned,
			models.TaskStatusInProgress, models.TaskStatusSubmitted, models.TaskStatusDisputed:
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) CountActiveAssigned(_ context.Context, doerID string) (int, error) {
	count := 0
	for _, t := range f.tasks {
		if t.AssignedDoerID == nil || *t.AssignedDoerID != doerID {
			continue
		}
		switch t.Status {
		case models.TaskStatusAssigned, models.TaskStatusInProgress, models.TaskStatusSubmitted:
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) ListExpirable(_ context.Context, now time.Time, _ int) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.Status == models.TaskStatusPublished && t.Deadline.Before(now) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeApplicationStore struct {
	apps   map[string]*models.TaskApplication
	nextID int
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{apps: map[string]*models.TaskApplication{}}
}

func (f *fakeApplicationStore) Create(_ context.Context, a *models.TaskApplication) error {
	for _, existing := range f.apps {
		if existing.TaskID == a.TaskID && existing.DoerID == a.DoerID {
			return apperrors.ErrApplicationExists
		}
	}
	f.nextID++
	a.ID = fmt.Sprintf("app-%d", f.nextID)
	copied := *a
	f.apps[a.ID] = &copied
	return nil
}

func (f *fakeApplicationStore) GetByID(_ context.Context, id string) (*models.TaskApplication, error) {
	a, ok := f.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeApplicationStore) ListByTask(_ context.Context, taskID string) ([]*models.TaskApplication, error) {
	var out []*models.TaskApplication
	for _, a := range f.apps {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) ListByDoer(_ context.Context, doerID string) ([]*models.TaskApplication, error) {
	var out []*models.TaskApplication
	for _, a := range f.apps {
		if a.DoerID == doerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus) error {
	a, ok := f.apps[id]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeApplicationStore) Accept(_ context.Context, taskID, applicationID string) error {
	accepted, ok := f.apps[applicationID]
	if !ok || accepted.TaskID != taskID || accepted.Status != models.ApplicationStatusPending {
		return apperrors.ErrApplicationNotFound
	}
	accepted.Status = models.ApplicationStatusAccepted
	for id, a := range f.apps {
		if a.TaskID == taskID && id != applicationID && a.Status == models.ApplicationStatusPending {
			a.Status = models.ApplicationStatusRejected
		}
	}
	return nil
}

type fakePaymentStore struct {
	payments     map[string]*models.Payment
	nextID       int
	recentLosses int
	totalLosses  int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: map[string]*models.Payment{}}
}

func (f *fakePaymentStore) Create(_ context.Context, p *models.Payment) error {
	f.nextID++
	p.ID = fmt.Sprintf("pay-%d", f.nextID)
	copied := *p
	f.payments[p.ID] = &copied
	return nil
}

func (f *fakePaymentStore) GetByTaskID(_ context.Context, taskID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.TaskID == taskID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (f *fakePaymentStore) MarkEscrowed(_ context.Context, id string, at time.Time) error {
	p := f.payments[id]
	p.Status = models.PaymentStatusEscrowed
	p.EscrowedAt = &at
	return nil
}

func (f *fakePaymentStore) MarkReleased(_ context.Context, id, providerTransferID string, at time.Time) error {
	p, ok := f.payments[id]
	if !ok {
		return apperrors.ErrPaymentNotFound
	}
	p.Status = models.PaymentStatusReleased
	p.ProviderTransferID = &providerTransferID
	p.ReleasedAt = &at
	return nil
}

func (f *fakePaymentStore) MarkRefunded(_ context.Context, id string, at time.Time) error {
	p, ok := f.payments[id]
	if !ok {
		return apperrors.ErrPaymentNotFound
	}
	p.Status = models.PaymentStatusRefunded
	p.RefundedAt = &at
	return nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, id string) error {
	f.payments[id].Status = models.PaymentStatusFailed
	return nil
}

func (f *fakePaymentStore) CountRecentRefundsAgainstDoer(_ context.Context, _ string, _ time.Time) (int, error) {
	return f.recentLosses, nil
}

func (f *fakePaymentStore) CountTotalRefundsAgainstDoer(_ context.Context, _ string) (int, error) {
	return f.totalLosses, nil
}

type fakeUserStore struct {
	users     map[string]*models.User
	suspended []string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) add(u *models.User) *models.User {
	copied := *u
	f.users[u.ID] = &copied
	return &copied
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) Update(_ context.Context, u *models.User) error {
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	f.users[userID].PasswordHash = hash
	return nil
}

func (f *fakeUserStore) UpdateTrustLevel(_ context.Context, userID string, level int) error {
	f.users[userID].TrustLevel = level
	return nil
}

func (f *fakeUserStore) SetAdminApprovedTier3(_ context.Context, userID string, approved bool) error {
	f.users[userID].AdminApprovedTier3 = approved
	return nil
}

func (f *fakeUserStore) Suspend(_ context.Context, userID string, at time.Time) error {
	u := f.users[userID]
	u.Status = models.UserStatusSuspended
	u.SuspendedAt = &at
	f.suspended = append(f.suspended, userID)
	return nil
}

func (f *fakeUserStore) UpdateStatus(_ context.Context, userID string, status models.UserStatus) error {
	f.users[userID].Status = status
	return nil
}

func (f *fakeUserStore) List(_ context.Context, _, _ int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeAuditStore struct {
	entries    []*models.AuditEntry
	moderation []*models.ModerationLogEntry
}

func (f *fakeAuditStore) Record(_ context.Context, e *models.AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditStore) RecordModeration(_ context.Context, e *models.ModerationLogEntry) error {
	f.moderation = append(f.moderation, e)
	return nil
}

func (f *fakeAuditStore) ListForEntity(_ context.Context, _, _ string, _ int) ([]*models.AuditEntry, error) {
	return f.entries, nil
}

func (f *fakeAuditStore) ListModerationForEntity(_ context.Context, _, _ string) ([]*models.ModerationLogEntry, error) {
	return f.moderation, nil
}

type gatewayCall struct {
	op             string
	amountCents    int64
	idempotencyKey string
}

type fakeGateway struct {
	calls     []gatewayCall
	failOn    string
	authCount int
}

func (f *fakeGateway) AuthorizeEscrow(_ context.Context, _ string, amountCents int64, key string) (*payments.Authorization, error) {
	f.calls = append(f.calls, gatewayCall{"authorize", amountCents, key})
	if f.failOn == "authorize" {
		return nil, apperrors.PaymentFailure("card declined")
	}
	f.authCount++
	return &payments.Authorization{
		ProviderPaymentID: fmt.Sprintf("pi_%d", f.authCount),
		AmountCents:       amountCents,
	}, nil
}

func (f *fakeGateway) Capture(_ context.Context, _ string, key string) error {
	f.calls = append(f.calls, gatewayCall{"capture", 0, key})
	if f.failOn == "capture" {
		return apperrors.PaymentFailure("capture failed")
	}
	return nil
}

func (f *fakeGateway) CancelAuthorization(_ context.Context, _ string, key string) error {
	f.calls = append(f.calls, gatewayCall{"void", 0, key})
	return nil
}

func (f *fakeGateway) Transfer(_ context.Context, _ string, amountCents int64, key string) (*payments.Transfer, error) {
	f.calls = append(f.calls, gatewayCall{"transfer", amountCents, key})
	if f.failOn == "transfer" {
		return nil, apperrors.PaymentFailure("transfer failed")
	}
	return &payments.Transfer{ProviderTransferID: "tr_1", AmountCents: amountCents}, nil
}

func (f *fakeGateway) Refund(_ context.Context, _ string, amountCents int64, key string) error {
	f.calls = append(f.calls, gatewayCall{"refund", amountCents, key})
	if f.failOn == "refund" {
		return apperrors.PaymentFailure("refund failed")
	}
	return nil
}

func (f *fakeGateway) ops() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

type fakeRecomputer struct {
	recomputed []string
}

func (f *fakeRecomputer) RecomputeForUser(_ context.Context, userID string) error {
	f.recomputed = append(f.recomputed, userID)
	return nil
}

// --- fixture ---

type taskServiceFixture struct {
	svc        TaskService
	tasks      *fakeTaskStore
	apps       *fakeApplicationStore
	payments   *fakePaymentStore
	users      *fakeUserStore
	audit      *fakeAuditStore
	gateway    *fakeGateway
	recomputer *fakeRecomputer
}

func newTaskServiceFixture(t *testing.T) *taskServiceFixture {
	t.Helper()
	f := &taskServiceFixture{
		tasks:      newFakeTaskStore(),
		apps:       newFakeApplicationStore(),
		payments:   newFakePaymentStore(),
		users:      newFakeUserStore(),
		audit:      &fakeAuditStore{},
		gateway:    &fakeGateway{},
		recomputer: &fakeRecomputer{},
	}
	f.svc = NewTaskService(
		f.tasks, f.apps, f.payments, f.users, f.audit,
		moderation.NewClassifier(), f.gateway, f.recomputer,
		email.NewNotifier(nil),
	)
	return f
}

func strPtr(s string) *string { return &s }

func (f *taskServiceFixture) addUser(id string, trustLevel int) *models.User {
	u := &models.User{
		Email:              id + "@example.com",
		Role:               models.UserRoleUser,
		Status:             models.UserStatusActive,
		TrustLevel:         trustLevel,
		ProviderCustomerID: strPtr("cus_" + id),
		ProviderPayoutID:   strPtr("acct_" + id),
	}
	u.ID = id
	u.CreatedAt = time.Now().AddDate(0, 0, -100)
	return f.users.add(u)
}

func (f *taskServiceFixture) seedTask(requesterID string, status models.TaskStatus, priceCents int64) *models.Task {
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
	f.tasks.tasks[task.ID].Status = status
	task.Status = status
	return task
}

func (f *taskServiceFixture) seedAssigned(requesterID, doerID string, priceCents int64) (*models.Task, *models.Payment) {
	task := f.seedTask(requesterID, models.TaskStatusAssigned, priceCents)
	f.tasks.tasks[task.ID].AssignedDoerID = &doerID
	task.AssignedDoerID = &doerID

	fees := models.CalculateFees(priceCents)
	payment := &models.Payment{
		TaskID:            task.ID,
		RequesterID:       requesterID,
		DoerID:            doerID,
		TaskPriceCents:    fees.TaskPriceCents,
		PlatformFeeCents:  fees.PlatformFeeCents,
		ProcessorFeeCents: fees.ProcessorFeeCents,
		TotalChargedCents: fees.TotalChargedCents,
		DoerPayoutCents:   fees.DoerPayoutCents,
		ProviderPaymentID: "pi_seed",
		Status:            models.PaymentStatusEscrowed,
	}
	_ = f.payments.Create(context.Background(), payment)
	return task, payment
}

// --- tests ---

func TestCreate_TrustGates(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()

	req := &dto.CreateTaskRequest{
		Title:        "Assemble bookshelf",
		Description:  "Need help assembling a flat-pack bookshelf this weekend.",
		Category:     "assembly",
		LocationType: "in_person",
		PriceCents:   10_000,
		Deadline:     time.Now().AddDate(0, 0, 7),
	}

	f.addUser("newbie", 0)
	_, err := f.svc.Create(ctx, "newbie", req)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTrustLevelInsufficient, appErr.Code, "level 0 cannot post")

	f.addUser("poster", 1)
	task, err := f.svc.Create(ctx, "poster", req)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDraft, task.Status)

	// Price above the tier 1 cap.
	expensive := *req
	expensive.PriceCents = 60_000
	_, err = f.svc.Create(ctx, "poster", &expensive)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTrustLevelInsufficient, appErr.Code)

	// Below the global minimum.
	cheap := *req
	cheap.PriceCents = 499
	_, err = f.svc.Create(ctx, "poster", &cheap)
	assert.Error(t, err)
}

func TestCreate_ActivePostedLimit(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)

	// Tier 1 allows 2 active posted tasks.
	f.seedTask("poster", models.TaskStatusPublished, 10_000)
	f.seedTask("poster", models.TaskStatusPendingReview, 10_000)

	_, err := f.svc.Create(ctx, "poster", &dto.CreateTaskRequest{
		Title:        "Assemble bookshelf",
		Description:  "Need help assembling a flat-pack bookshelf this weekend.",
		Category:     "assembly",
		LocationType: "in_person",
		PriceCents:   10_000,
		Deadline:     time.Now().AddDate(0, 0, 7),
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLimitExceeded, appErr.Code)
}

func TestSubmitForReview_CleanPublishes(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)
	task := f.seedTask("poster", models.TaskStatusDraft, 10_000)

	got, err := f.svc.SubmitForReview(ctx, "poster", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPublished, got.Status)

	require.Len(t, f.audit.moderation, 1)
	assert.Equal(t, "approved", f.audit.moderation[0].Action)
	assert.Nil(t, f.audit.moderation[0].ModeratorID, "automated decision has no moderator")
}

func TestSubmitForReview_RejectedContent(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)
	task := f.seedTask("poster", models.TaskStatusDraft, 10_000)
	f.tasks.tasks[task.ID].Description = "Contact me on whatsapp at 555-123-4567 to discuss the job."

	got, err := f.svc.SubmitForReview(ctx, "poster", task.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeContentRejected, appErr.Code)
	assert.Equal(t, models.TaskStatusRejected, got.Status)
	assert.NotNil(t, got.RejectionReason)

	require.Len(t, f.audit.moderation, 1)
	assert.Equal(t, "rejected", f.audit.moderation[0].Action)
}

func TestSubmitForReview_FlaggedHolds(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)
	task := f.seedTask("poster", models.TaskStatusDraft, 10_000)
	f.tasks.tasks[task.ID].Description = "Looking for a discreet arrangement, details in person."

	got, err := f.svc.SubmitForReview(ctx, "poster", task.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeContentFlagged, appErr.Code)
	assert.Equal(t, models.TaskStatusPendingReview, got.Status)
	assert.NotNil(t, got.ModerationNote)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Equal(t, models.TaskStatusPendingReview, stored.Status)
}

func TestSubmitForReview_ShortTextHeldForReview(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)
	task := f.seedTask("poster", models.TaskStatusDraft, 10_000)
	f.tasks.tasks[task.ID].Title = "Help me"
	f.tasks.tasks[task.ID].Description = "please"

	// Title and description together are under the short-text threshold;
	// the combined text must be held, not published.
	got, err := f.svc.SubmitForReview(ctx, "poster", task.ID)
	require.True(t, apperrors.Is(err, apperrors.ErrContentFlagged))
	assert.Equal(t, models.TaskStatusPendingReview, got.Status)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Equal(t, models.TaskStatusPendingReview, stored.Status)
}

func TestModerate_ApproveFlagged(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 1)
	task := f.seedTask("poster", models.TaskStatusPendingReview, 10_000)

	got, err := f.svc.Moderate(ctx, "admin-1", task.ID, &dto.ModerateTaskRequest{Decision: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPublished, got.Status)

	require.Len(t, f.audit.moderation, 1)
	require.NotNil(t, f.audit.moderation[0].ModeratorID)
	assert.Equal(t, "admin-1", *f.audit.moderation[0].ModeratorID)
}

func TestAssign_EscrowsBeforePersisting(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task := f.seedTask("poster", models.TaskStatusPublished, 10_000)

	app := &models.TaskApplication{TaskID: task.ID, DoerID: "doer", Status: models.ApplicationStatusPending}
	require.NoError(t, f.apps.Create(ctx, app))

	got, err := f.svc.Assign(ctx, "poster", task.ID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusAssigned, got.Status)
	require.NotNil(t, got.AssignedDoerID)
	assert.Equal(t, "doer", *got.AssignedDoerID)

	// The hold is for the requester's full charge, not the raw price.
	fees := models.CalculateFees(10_000)
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "authorize", f.gateway.calls[0].op)
	assert.Equal(t, fees.TotalChargedCents, f.gateway.calls[0].amountCents)

	payment, err := f.payments.GetByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusEscrowed, payment.Status)
	assert.Equal(t, fees.DoerPayoutCents, payment.DoerPayoutCents)

	stored, _ := f.apps.GetByID(ctx, app.ID)
	assert.Equal(t, models.ApplicationStatusAccepted, stored.Status)
}

func TestAssign_DeclinedCardChangesNothing(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task := f.seedTask("poster", models.TaskStatusPublished, 10_000)

	app := &models.TaskApplication{TaskID: task.ID, DoerID: "doer", Status: models.ApplicationStatusPending}
	require.NoError(t, f.apps.Create(ctx, app))

	f.gateway.failOn = "authorize"
	_, err := f.svc.Assign(ctx, "poster", task.ID, app.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodePaymentFailure, appErr.Code)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Equal(t, models.TaskStatusPublished, stored.Status, "declined hold must not move the task")
	storedApp, _ := f.apps.GetByID(ctx, app.ID)
	assert.Equal(t, models.ApplicationStatusPending, storedApp.Status)
	_, err = f.payments.GetByTaskID(ctx, task.ID)
	assert.Error(t, err, "no payment row without a hold")
}

func TestAssign_ConcurrentTakeVoidsHold(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task := f.seedTask("poster", models.TaskStatusPublished, 10_000)

	app := &models.TaskApplication{TaskID: task.ID, DoerID: "doer", Status: models.ApplicationStatusPending}
	require.NoError(t, f.apps.Create(ctx, app))

	// Another writer wins the assignment write after the hold is placed.
	f.tasks.failAssign = true

	_, err := f.svc.Assign(ctx, "poster", task.ID, app.ID)
	require.Error(t, err)
	assert.Equal(t, []string{"authorize", "void"}, f.gateway.ops(), "escrow hold must be voided")
}

func TestAssign_ConcurrentLimit(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 0) // tier 0: at most 2 concurrent tasks

	f.seedAssigned("other-1", "doer", 10_000)
	f.seedAssigned("other-2", "doer", 10_000)

	task := f.seedTask("poster", models.TaskStatusPublished, 10_000)
	app := &models.TaskApplication{TaskID: task.ID, DoerID: "doer", Status: models.ApplicationStatusPending}
	require.NoError(t, f.apps.Create(ctx, app))

	_, err := f.svc.Assign(ctx, "poster", task.ID, app.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLimitExceeded, appErr.Code)
	assert.Empty(t, f.gateway.calls, "no hold placed when the limit blocks assignment")
}

func TestStart_CapturesEscrow(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)

	got, err := f.svc.Start(ctx, "doer", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, got.Status)
	assert.Equal(t, []string{"capture"}, f.gateway.ops())

	_, err = f.svc.Start(ctx, "poster", task.ID)
	assert.Error(t, err, "only the assigned doer can start")
}

func TestApprove_ReleasesPayout(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusSubmitted

	got, err := f.svc.Approve(ctx, "poster", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)

	fees := models.CalculateFees(10_000)
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "transfer", f.gateway.calls[0].op)
	assert.Equal(t, fees.DoerPayoutCents, f.gateway.calls[0].amountCents)

	payment, _ := f.payments.GetByTaskID(ctx, task.ID)
	assert.Equal(t, models.PaymentStatusReleased, payment.Status)
	assert.Equal(t, []string{"doer"}, f.recomputer.recomputed)
}

func TestApprove_TransferFailureHoldsState(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusSubmitted

	f.gateway.failOn = "transfer"
	_, err := f.svc.Approve(ctx, "poster", task.ID)
	require.Error(t, err)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Equal(t, models.TaskStatusSubmitted, stored.Status, "failed transfer must not complete the task")
	payment, _ := f.payments.GetByTaskID(ctx, task.ID)
	assert.Equal(t, models.PaymentStatusEscrowed, payment.Status)
	assert.Empty(t, f.recomputer.recomputed)
}

func TestDispute(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusSubmitted

	got, err := f.svc.Dispute(ctx, "poster", task.ID, "work not done")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDisputed, got.Status)

	_, err = f.svc.Dispute(ctx, "poster", task.ID, "again")
	assert.Error(t, err, "cannot dispute twice")
}

func TestResolve_RefundCountsAsLoss(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusDisputed

	f.payments.recentLosses = 1 // under the threshold after this loss

	got, err := f.svc.Resolve(ctx, "admin-1", task.ID, &dto.ResolveDisputeRequest{Outcome: "refund"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusResolved, got.Status)

	fees := models.CalculateFees(10_000)
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "refund", f.gateway.calls[0].op)
	assert.Equal(t, fees.TotalChargedCents, f.gateway.calls[0].amountCents,
		"refund returns the full charge including fees")

	payment, _ := f.payments.GetByTaskID(ctx, task.ID)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	assert.Equal(t, []string{"doer"}, f.recomputer.recomputed)
	assert.Empty(t, f.users.suspended, "two losses in the window do not suspend")
}

func TestResolve_ThirdRecentLossSuspends(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusDisputed

	f.payments.recentLosses = 3

	_, err := f.svc.Resolve(ctx, "admin-1", task.ID, &dto.ResolveDisputeRequest{Outcome: "refund"})
	require.NoError(t, err)
	assert.Equal(t, []string{"doer"}, f.users.suspended)
}

func TestResolve_ReleasePaysDoer(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)
	f.tasks.tasks[task.ID].Status = models.TaskStatusDisputed

	got, err := f.svc.Resolve(ctx, "admin-1", task.ID, &dto.ResolveDisputeRequest{Outcome: "release"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusResolved, got.Status)
	assert.Equal(t, []string{"transfer"}, f.gateway.ops())
	assert.Empty(t, f.users.suspended, "a win never suspends")
}

func TestCancel_AssignedVoidsEscrow(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)

	got, err := f.svc.Cancel(ctx, "poster", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, got.Status)
	assert.Equal(t, []string{"void"}, f.gateway.ops())

	payment, _ := f.payments.GetByTaskID(ctx, task.ID)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
}

func TestCancel_DoerAbandonRecomputesReputation(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	f.addUser("doer", 1)
	task, _ := f.seedAssigned("poster", "doer", 10_000)

	_, err := f.svc.Cancel(ctx, "doer", task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"doer"}, f.recomputer.recomputed)
}

func TestCancel_PublishedNoPayment(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)
	task := f.seedTask("poster", models.TaskStatusPublished, 10_000)

	got, err := f.svc.Cancel(ctx, "poster", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, got.Status)
	assert.Empty(t, f.gateway.calls)

	_, err = f.svc.Cancel(ctx, "stranger", task.ID)
	assert.Error(t, err)
}

func TestExpireOverdue(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	f.addUser("poster", 2)

	overdue := f.seedTask("poster", models.TaskStatusPublished, 10_000)
	f.tasks.tasks[overdue.ID].Deadline = time.Now().AddDate(0, 0, -1)
	fresh := f.seedTask("poster", models.TaskStatusPublished, 10_000)

	expired, err := f.svc.ExpireOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, _ := f.tasks.GetByID(ctx, overdue.ID)
	assert.Equal(t, models.TaskStatusExpired, stored.Status)
	stored, _ = f.tasks.GetByID(ctx, fresh.ID)
	assert.Equal(t, models.TaskStatusPublished, stored.Status)
}
