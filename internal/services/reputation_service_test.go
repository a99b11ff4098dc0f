package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/repositories"
)

type fakeReputationStore struct {
	summaries map[string]*models.ReputationSummary
	history   repositories.DoerHistory
}

func newFakeReputationStore() *fakeReputationStore {
	return &fakeReputationStore{summaries: map[string]*models.ReputationSummary{}}
}

func (f *fakeReputationStore) Get(_ context.Context, userID string) (*models.ReputationSummary, error) {
	s, ok := f.summaries[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeReputationStore) Upsert(_ context.Context, s *models.ReputationSummary) error {
	copied := *s
	f.summaries[s.UserID] = &copied
	return nil
}

func (f *fakeReputationStore) HistoryForDoer(_ context.Context, _ string) (*repositories.DoerHistory, error) {
	h := f.history
	return &h, nil
}

type fakeReviewStore struct {
	reviews    map[string]*models.Review
	aggregates repositories.ReviewAggregates
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[string]*models.Review{}}
}

func (f *fakeReviewStore) Create(_ context.Context, r *models.Review) error {
	copied := *r
	f.reviews[r.TaskID+"/"+r.ReviewerID] = &copied
	return nil
}

func (f *fakeReviewStore) GetByTaskAndReviewer(_ context.Context, taskID, reviewerID string) (*models.Review, error) {
	r, ok := f.reviews[taskID+"/"+reviewerID]
	if !ok {
		return nil, nil
	}
	return r, nil
}

func (f *fakeReviewStore) ListForUser(_ context.Context, _ string, _, _ int) ([]*models.Review, error) {
	return nil, nil
}

func (f *fakeReviewStore) AggregatesForUser(_ context.Context, _ string) (*repositories.ReviewAggregates, error) {
	agg := f.aggregates
	return &agg, nil
}

type reputationFixture struct {
	svc         ReputationService
	reputations *fakeReputationStore
	reviews     *fakeReviewStore
	payments    *fakePaymentStore
	users       *fakeUserStore
}

func newReputationFixture() *reputationFixture {
	f := &reputationFixture{
		reputations: newFakeReputationStore(),
		reviews:     newFakeReviewStore(),
		payments:    newFakePaymentStore(),
		users:       newFakeUserStore(),
	}
	f.svc = NewReputationService(f.reputations, f.reviews, f.payments, f.users, nil)
	return f
}

func (f *reputationFixture) addUser(id string, ageDays, trustLevel int) *models.User {
	u := &models.User{
		Role:       models.UserRoleUser,
		Status:     models.UserStatusActive,
		TrustLevel: trustLevel,
	}
	u.ID = id
	u.CreatedAt = time.Now().AddDate(0, 0, -ageDays)
	return f.users.add(u)
}

func TestGetSummary_NoHistoryReturnsZeroSummary(t *testing.T) {
	f := newReputationFixture()
	f.addUser("u1", 10, 0)

	summary, err := f.svc.GetSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, 0, summary.TotalCompleted)
	assert.Zero(t, summary.CompletionRate)
}

func TestRecompute_BuildsSummaryFromHistory(t *testing.T) {
	f := newReputationFixture()
	f.addUser("doer", 200, 0)
	f.reputations.history = repositories.DoerHistory{Completed: 8, Cancelled: 1}
	f.payments.totalLosses = 1
	f.reviews.aggregates = repositories.ReviewAggregates{
		Count:            10,
		AvgReliability:   4.5,
		AvgQuality:       4.2,
		AvgCommunication: 4.8,
		AvgIntegrity:     4.1,
		PositiveCount:    9,
	}

	require.NoError(t, f.svc.RecomputeForUser(context.Background(), "doer"))

	summary := f.reputations.summaries["doer"]
	require.NotNil(t, summary)
	assert.Equal(t, 8, summary.TotalCompleted)
	assert.Equal(t, 1, summary.CancelledAsDoer)
	assert.Equal(t, 1, summary.DisputesLost)
	assert.InDelta(t, 0.8, summary.CompletionRate, 1e-9)
	assert.Equal(t, 10, summary.ReviewCount)
	assert.InDelta(t, 0.9, summary.PositiveReviewRate, 1e-9)
	assert.InDelta(t, 4.5, summary.AvgReliability, 1e-9)
}

func TestRecompute_PromotesTrustLevel(t *testing.T) {
	f := newReputationFixture()
	f.addUser("doer", 120, 0)
	f.reputations.history = repositories.DoerHistory{Completed: 25}
	f.reviews.aggregates = repositories.ReviewAggregates{Count: 20, PositiveCount: 19}

	require.NoError(t, f.svc.RecomputeForUser(context.Background(), "doer"))

	user, err := f.users.GetByID(context.Background(), "doer")
	require.NoError(t, err)
	assert.Equal(t, 2, user.TrustLevel)
}

func TestRecompute_LostDisputeDemotes(t *testing.T) {
	f := newReputationFixture()
	f.addUser("doer", 120, 2)
	f.reputations.history = repositories.DoerHistory{Completed: 25}
	f.payments.totalLosses = 1
	f.reviews.aggregates = repositories.ReviewAggregates{Count: 20, PositiveCount: 19}

	require.NoError(t, f.svc.RecomputeForUser(context.Background(), "doer"))

	user, err := f.users.GetByID(context.Background(), "doer")
	require.NoError(t, err)
	assert.Equal(t, 0, user.TrustLevel, "a lost dispute blocks tiers 1 and 2")
}

func TestRecompute_UnchangedLevelDoesNotTouchUser(t *testing.T) {
	f := newReputationFixture()
	f.addUser("doer", 40, 1)
	f.reputations.history = repositories.DoerHistory{Completed: 6}

	require.NoError(t, f.svc.RecomputeForUser(context.Background(), "doer"))

	user, err := f.users.GetByID(context.Background(), "doer")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TrustLevel)
}
