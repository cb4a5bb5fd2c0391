package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/models"
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

func TestPlan_BudgetSplit(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	user := &models.User{UserID: "u1", EnglishLevel: models.LevelCET4, JapaneseLevel: models.LevelN5, DailyStudyMinutes: 30}
	store.On("GetUser", ctx, "u1").Return(user, nil)
	// due is fetched unbounded now; the 3-activity budget only gates the
	// overrun warning, not the query limit.
	store.On("DueRecords", ctx, "u1", now, 0).Return([]models.LearningRecord{
		{ItemID: 1, Kind: models.KindVocabulary, NextReviewAt: now.Add(-time.Hour)},
	}, nil)
	store.On("MasteredItemIDs", ctx, "u1", models.KindVocabulary).Return([]int64{}, nil)
	store.On("MasteredItemIDs", ctx, "u1", models.KindGrammar).Return([]int64{}, nil)
	store.On("SelectVocabulary", ctx, models.LanguageEnglish, models.LevelCET4, []int64{1}, mock.Anything).Return([]models.Item{{ItemID: 10, Kind: models.KindVocabulary}}, nil)
	store.On("SelectGrammar", ctx, models.LanguageEnglish, models.LevelCET4, []int64{1}, mock.Anything).Return([]models.Item{}, nil)
	store.On("SelectVocabulary", ctx, models.LanguageJapanese, models.LevelN5, []int64{1}, mock.Anything).Return([]models.Item{{ItemID: 20, Kind: models.KindVocabulary}}, nil)
	store.On("SelectGrammar", ctx, models.LanguageJapanese, models.LevelN5, []int64{1}, mock.Anything).Return([]models.Item{}, nil)

	planner := NewPlanner(store, logger.New(logger.Config{Level: "error"}), 0, 0)
	sess, err := planner.Plan(ctx, "u1", Overrides{}, now)
	require.NoError(t, err)

	assert.Equal(t, 30, sess.PlannedMinutes)
	assert.NotEmpty(t, sess.Activities)
	store.AssertExpectations(t)
}

func TestPlan_RequiresUserID(t *testing.T) {
	store := &mockStore{}
	planner := NewPlanner(store, nil, 0, 0)
	_, err := planner.Plan(context.Background(), "", Overrides{}, time.Now())
	require.Error(t, err)
}

func TestPlan_OverridesWinOverProfile(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	now := time.Now().UTC()

	user := &models.User{UserID: "u1", EnglishLevel: models.LevelCET4, JapaneseLevel: models.LevelN5, DailyStudyMinutes: 30}
	store.On("GetUser", ctx, "u1").Return(user, nil)
	store.On("DueRecords", ctx, "u1", now, mock.Anything).Return([]models.LearningRecord{}, nil)
	store.On("MasteredItemIDs", ctx, "u1", mock.Anything).Return([]int64{}, nil)
	store.On("SelectVocabulary", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Item{}, nil)
	store.On("SelectGrammar", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Item{}, nil)

	planner := NewPlanner(store, nil, 0, 0)
	sess, err := planner.Plan(ctx, "u1", Overrides{DailyMinutes: 60}, now)
	require.NoError(t, err)
	assert.Equal(t, 60, sess.PlannedMinutes)
}

func TestInterleave_WarmUpFirst(t *testing.T) {
	due := make([]models.LearningRecord, 5)
	for i := range due {
		due[i] = models.LearningRecord{ItemID: int64(i + 1), Kind: models.KindVocabulary}
	}
	english := []models.Item{{ItemID: 100, Kind: models.KindVocabulary}}

	activities := interleave(due, english, nil)

	require.True(t, len(activities) >= warmUpCount)
	for i := 0; i < warmUpCount; i++ {
		assert.Equal(t, models.ActivityReview, activities[i].Mode)
	}
}

func TestEvaluateOutcome_NewVsReview(t *testing.T) {
	attempts := []Attempt{
		{Before: nil, After: models.LearningRecord{MasteryLevel: 0}, Language: models.LanguageEnglish, Correct: true, Minutes: 2},
		{Before: &models.LearningRecord{MasteryLevel: 4}, After: models.LearningRecord{MasteryLevel: 5}, Language: models.LanguageJapanese, Correct: true, Minutes: 2},
		{Before: &models.LearningRecord{MasteryLevel: 3}, After: models.LearningRecord{MasteryLevel: 2}, Language: models.LanguageJapanese, Correct: false, Minutes: 2},
	}

	out := EvaluateOutcome(attempts)
	assert.Equal(t, 3, out.ItemsAttempted)
	assert.Equal(t, 2, out.ItemsCorrect)
	assert.Equal(t, 1, out.NewItemsLearned)
	assert.Equal(t, 1, out.ItemsMastered)
	assert.InDelta(t, 0.5, out.ReviewHitRate, 0.0001)
	assert.Equal(t, 2, out.MinutesByLang[models.LanguageEnglish])
	assert.Equal(t, 4, out.MinutesByLang[models.LanguageJapanese])
}

func TestSetStatus_AndEnd(t *testing.T) {
	sess := &models.Session{
		Activities: []models.Activity{{ItemID: 1, Status: models.ActivityPlanned}},
	}
	SetStatus(sess, 1, models.ActivityInProgress)
	assert.Equal(t, models.ActivityInProgress, sess.Activities[0].Status)

	now := time.Now()
	End(sess, now)
	require.NotNil(t, sess.EndedAt)
	assert.Equal(t, now, *sess.EndedAt)
}
