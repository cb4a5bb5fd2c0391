package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/models"
)

type mockStore struct {
	mock.Mock
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

func (m *mockStore) RecordsReviewedBetween(ctx context.Context, userID string, from, to time.Time) ([]models.LearningRecord, error) {
	args := m.Called(ctx, userID, from, to)
	recs, _ := args.Get(0).([]models.LearningRecord)
	return recs, args.Error(1)
}

func TestRecordAttempt_FirstCorrect(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	store.On("GetLearningRecord", ctx, "u1", int64(1), models.KindVocabulary).Return(nil, errs.NotFoundf("no record"))
	store.On("UpsertLearningRecord", ctx, mock.Anything).Return(nil)

	a := New(store)
	result, err := a.RecordAttempt(ctx, "u1", 1, models.KindVocabulary, true, now)
	require.NoError(t, err)
	assert.True(t, result.Feedback.Recorded)
	assert.Equal(t, 1, result.Record.LearnCount)
	assert.Equal(t, now.AddDate(0, 0, 1), result.NextReviewAt)
	store.AssertExpectations(t)
}

func TestRecordAttempt_StoreFailureKeepsPriorRecord(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	now := time.Now().UTC()

	prior := &models.LearningRecord{UserID: "u1", ItemID: 1, Kind: models.KindVocabulary, LearnCount: 3, MemoryStrength: 0.8}
	store.On("GetLearningRecord", ctx, "u1", int64(1), models.KindVocabulary).Return(prior, nil)
	store.On("UpsertLearningRecord", ctx, mock.Anything).Return(errors.New("disk full"))

	a := New(store)
	result, err := a.RecordAttempt(ctx, "u1", 1, models.KindVocabulary, true, now)
	require.NoError(t, err, "a store write failure must not propagate as an API error, per the recorded=false contract")
	assert.False(t, result.Feedback.Recorded)
	assert.Equal(t, *prior, result.Record, "the caller must see the unchanged prior record when the write fails")
}

func TestRecordAttempt_InvalidInput(t *testing.T) {
	store := &mockStore{}
	a := New(store)

	_, err := a.RecordAttempt(context.Background(), "", 1, models.KindVocabulary, true, time.Now())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))

	_, err = a.RecordAttempt(context.Background(), "u1", 1, models.Kind("bogus"), true, time.Now())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))
}

func TestFeedbackFor_SeverityThresholds(t *testing.T) {
	tests := []struct {
		name           string
		correct        bool
		memoryStrength float64
		wantSeverity   Severity
	}{
		{"incorrect always poor", false, 1.0, SeverityPoor},
		{"high memory strength excellent", true, 0.95, SeverityExcellent},
		{"boundary excellent", true, 0.9, SeverityExcellent},
		{"good band", true, 0.8, SeverityGood},
		{"boundary good", true, 0.7, SeverityGood},
		{"fair band", true, 0.5, SeverityFair},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := feedbackFor(tt.correct, tt.memoryStrength, true)
			assert.Equal(t, tt.wantSeverity, fb.Severity)
		})
	}
}

func TestEvaluateSessionOutcome(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	from := time.Now().Add(-time.Hour)
	to := time.Now()

	store.On("RecordsReviewedBetween", ctx, "u1", from, to).Return([]models.LearningRecord{
		{ConsecutiveCorrect: 1},
		{ConsecutiveCorrect: 0},
		{ConsecutiveCorrect: 2},
	}, nil)

	out, err := EvaluateSessionOutcome(ctx, store, "u1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, out.ItemsAttempted)
	assert.Equal(t, 2, out.ItemsCorrect)
	assert.InDelta(t, 2.0/3.0, out.HitRate, 0.0001)
}

func TestEvaluateSessionOutcome_RequiresUserID(t *testing.T) {
	store := &mockStore{}
	_, err := EvaluateSessionOutcome(context.Background(), store, "", time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))
}
