package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/models"
	"github.com/example/bilingualtutor/internal/session"
	"github.com/example/bilingualtutor/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) DueRecords(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.LearningRecord, error) {
	args := m.Called(ctx, userID, asOf, limit)
	recs, _ := args.Get(0).([]models.LearningRecord)
	return recs, args.Error(1)
}

func (m *mockStore) SelectVocabulary(ctx context.Context, language models.Language, level models.Level, exclude []int64, limit int) ([]models.Item, error) {
	args := m.Called(ctx, language, level, exclude, limit)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *mockStore) SelectGrammar(ctx context.Context, language models.Language, level models.Level, exclude []int64, limit int) ([]models.Item, error) {
	args := m.Called(ctx, language, level, exclude, limit)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *mockStore) SelectReading(ctx context.Context, language models.Language, level models.Level, exclude []int64, limit int) ([]models.Item, error) {
	args := m.Called(ctx, language, level, exclude, limit)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *mockStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) MasteredItemIDs(ctx context.Context, userID string, kind models.Kind) ([]int64, error) {
	args := m.Called(ctx, userID, kind)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *mockStore) GetLearningRecord(ctx context.Context, userID string, itemID int64, kind models.Kind) (*models.LearningRecord, error) {
	args := m.Called(ctx, userID, itemID, kind)
	rec, _ := args.Get(0).(*models.LearningRecord)
	return rec, args.Error(1)
}

func (m *mockStore) UpsertLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) Progress(ctx context.Context, userID string, now time.Time) (store.ProgressStats, error) {
	args := m.Called(ctx, userID, now)
	ps, _ := args.Get(0).(store.ProgressStats)
	return ps, args.Error(1)
}

func (m *mockStore) BatchInsertItems(ctx context.Context, items []models.Item) (int, int, error) {
	args := m.Called(ctx, items)
	return args.Int(0), args.Int(1), args.Error(2)
}

func TestStartSession_RequiresUserID(t *testing.T) {
	svc := New(&mockStore{}, nil, 0, 0, 0, 0)
	_, err := svc.StartSession(context.Background(), "", session.Overrides{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))
}

func TestStartSession_FailurePlanReturnsEmptySessionNotError(t *testing.T) {
	st := &mockStore{}
	st.On("GetUser", mock.Anything, "u1").Return(nil, errs.NotFoundf("no user"))

	svc := New(st, logger.New(logger.Config{Level: "error"}), 0, 0, 0, 0)
	sess, err := svc.StartSession(context.Background(), "u1", session.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Empty(t, sess.Activities)
}

func TestGetDue_ValidatesInputs(t *testing.T) {
	svc := New(&mockStore{}, nil, 0, 0, 0, 0)

	_, err := svc.GetDue(context.Background(), "", "", 0)
	require.Error(t, err)

	_, err = svc.GetDue(context.Background(), "u1", "", -1)
	require.Error(t, err)

	_, err = svc.GetDue(context.Background(), "u1", models.Kind("bogus"), 0)
	require.Error(t, err)
}

func TestGetDue_FiltersByKindAndLimit(t *testing.T) {
	st := &mockStore{}
	now := time.Now().UTC()
	st.On("DueRecords", mock.Anything, "u1", mock.Anything, 0).Return([]models.LearningRecord{
		{ItemID: 1, Kind: models.KindVocabulary, NextReviewAt: now.Add(-time.Hour)},
		{ItemID: 2, Kind: models.KindGrammar, NextReviewAt: now.Add(-2 * time.Hour)},
		{ItemID: 3, Kind: models.KindVocabulary, NextReviewAt: now.Add(-3 * time.Hour)},
	}, nil)

	svc := New(st, nil, 0, 0, 0, 0)
	due, err := svc.GetDue(context.Background(), "u1", models.KindVocabulary, 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(3), due[0].ItemID, "the oldest due vocabulary item must win under a limit of 1")
}

func TestSubmitAttempt_ValidatesInputs(t *testing.T) {
	svc := New(&mockStore{}, nil, 0, 0, 0, 0)

	_, err := svc.SubmitAttempt(context.Background(), "", 1, models.KindVocabulary, true)
	require.Error(t, err)

	_, err = svc.SubmitAttempt(context.Background(), "u1", 0, models.KindVocabulary, true)
	require.Error(t, err)

	_, err = svc.SubmitAttempt(context.Background(), "u1", 1, models.Kind("bogus"), true)
	require.Error(t, err)
}

func TestSubmitAttempt_Success(t *testing.T) {
	st := &mockStore{}
	st.On("GetLearningRecord", mock.Anything, "u1", int64(5), models.KindVocabulary).Return(nil, errs.NotFoundf("none"))
	st.On("UpsertLearningRecord", mock.Anything, mock.Anything).Return(nil)

	svc := New(st, nil, 0, 0, 0, 0)
	result, err := svc.SubmitAttempt(context.Background(), "u1", 5, models.KindVocabulary, true)
	require.NoError(t, err)
	assert.True(t, result.Feedback.Recorded)
}

func TestProgress_RequiresUserID(t *testing.T) {
	svc := New(&mockStore{}, nil, 0, 0, 0, 0)
	_, err := svc.Progress(context.Background(), "")
	require.Error(t, err)
}

func TestProgress_DelegatesToStore(t *testing.T) {
	st := &mockStore{}
	st.On("Progress", mock.Anything, "u1", mock.Anything).Return(store.ProgressStats{TotalItemsLearned: 4}, nil)

	svc := New(st, nil, 0, 0, 0, 0)
	stats, err := svc.Progress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalItemsLearned)
}

func TestIngestRun_NoSourcesMakesNoRequests(t *testing.T) {
	st := &mockStore{}
	st.On("BatchInsertItems", mock.Anything, mock.Anything).Return(0, 0, nil).Maybe()

	svc := New(st, nil, 0, 0, time.Millisecond, time.Minute)
	stats := svc.IngestRun(context.Background(), nil, true, 10)
	assert.Equal(t, 0, stats.Requests)
}
