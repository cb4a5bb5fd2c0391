// Package session composes a daily study plan for a user: a due-review
// budget, new-item selection, and warm-up interleaving, backed by C1
// (internal/store) and C2 (internal/scheduler).
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/bilingualtutor/internal/errs"
	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/models"
	"github.com/example/bilingualtutor/internal/scheduler"
)

const (
	defaultReviewShare     = 0.20
	defaultLanguageBalance = 0.50
	minutesPerActivity     = 2
	warmUpCount            = 3
)

// Store is the subset of internal/store.Pool the planner needs.
type Store interface {
	DueRecords(ctx context.Context, userID string, asOf time.Time, limit int) ([]models.LearningRecord, error)
	SelectVocabulary(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
	SelectGrammar(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
	SelectReading(ctx context.Context, language models.Language, level models.Level, excludeItemIDs []int64, limit int) ([]models.Item, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	MasteredItemIDs(ctx context.Context, userID string, kind models.Kind) ([]int64, error)
}

// Overrides lets a caller adjust a single plan without persisting a
// change to the user's profile (spec §4.3).
type Overrides struct {
	EnglishLevel  models.Level
	JapaneseLevel models.Level
	DailyMinutes  int
}

// Planner builds Sessions.
type Planner struct {
	store           Store
	log             *logger.Logger
	reviewShare     float64
	languageBalance float64
}

// NewPlanner constructs a Planner with the configured review share and
// language balance; both default to spec §4.3's 20%/50-50 when zero.
func NewPlanner(store Store, log *logger.Logger, reviewShare, languageBalance float64) *Planner {
	if reviewShare <= 0 {
		reviewShare = defaultReviewShare
	}
	if languageBalance <= 0 {
		languageBalance = defaultLanguageBalance
	}
	return &Planner{store: store, log: log, reviewShare: reviewShare, languageBalance: languageBalance}
}

// Plan assembles a Session for userID at now, honoring any overrides.
func (p *Planner) Plan(ctx context.Context, userID string, overrides Overrides, now time.Time) (*models.Session, error) {
	if userID == "" {
		return nil, errs.InvalidInputf("user_id is required")
	}

	user, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dailyMinutes := user.DailyStudyMinutes
	if overrides.DailyMinutes > 0 {
		dailyMinutes = overrides.DailyMinutes
	}
	if dailyMinutes <= 0 {
		dailyMinutes = 30
	}

	englishLevel := user.EnglishLevel
	if overrides.EnglishLevel != "" {
		englishLevel = overrides.EnglishLevel
	}
	japaneseLevel := user.JapaneseLevel
	if overrides.JapaneseLevel != "" {
		japaneseLevel = overrides.JapaneseLevel
	}

	reviewMinutes := int(float64(dailyMinutes) * p.reviewShare)
	reviewBudget := reviewMinutes / minutesPerActivity
	if reviewBudget < 1 {
		reviewBudget = 1
	}

	// Fetch the full due list unbounded: the 20% allocation is a
	// planning target, not a hard cap, and an oversized due list must
	// be surfaced in full with the overrun logged rather than silently
	// clipped at the store (spec §4.3).
	due, err := p.store.DueRecords(ctx, userID, now, 0)
	if err != nil {
		return nil, err
	}
	scheduler.SortDue(due)

	if len(due) > reviewBudget && p.log != nil {
		p.log.WithContext(ctx).Warnf("review overrun for user %s: %d due items exceed budget of %d", userID, len(due), reviewBudget)
	}

	learnMinutes := dailyMinutes - reviewMinutes
	if learnMinutes < 0 {
		learnMinutes = 0
	}
	learnBudget := learnMinutes / minutesPerActivity

	englishBudget := int(float64(learnBudget) * p.languageBalance)
	japaneseBudget := learnBudget - englishBudget

	exclude := make([]int64, 0, len(due))
	for _, r := range due {
		exclude = append(exclude, r.ItemID)
	}

	englishItems, err := p.selectNewItems(ctx, userID, models.LanguageEnglish, englishLevel, exclude, englishBudget)
	if err != nil {
		return nil, err
	}
	japaneseItems, err := p.selectNewItems(ctx, userID, models.LanguageJapanese, japaneseLevel, exclude, japaneseBudget)
	if err != nil {
		return nil, err
	}

	activities := interleave(due, englishItems, japaneseItems)

	return &models.Session{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		PlannedMinutes: dailyMinutes,
		Activities:     activities,
		StartedAt:      now,
	}, nil
}

func (p *Planner) selectNewItems(ctx context.Context, userID string, language models.Language, level models.Level, exclude []int64, limit int) ([]models.Item, error) {
	if limit <= 0 || level == "" {
		return nil, nil
	}

	vocabLimit := (limit + 1) / 2
	grammarLimit := limit - vocabLimit

	// Already-mastered items are never re-offered as new "learn" picks
	// (spec §4.2); each kind excludes its own mastered set in addition
	// to whatever is currently due.
	masteredVocab, err := p.store.MasteredItemIDs(ctx, userID, models.KindVocabulary)
	if err != nil {
		return nil, err
	}
	masteredGrammar, err := p.store.MasteredItemIDs(ctx, userID, models.KindGrammar)
	if err != nil {
		return nil, err
	}

	vocab, err := p.store.SelectVocabulary(ctx, language, level, append(append([]int64{}, exclude...), masteredVocab...), vocabLimit)
	if err != nil {
		return nil, err
	}
	grammar, err := p.store.SelectGrammar(ctx, language, level, append(append([]int64{}, exclude...), masteredGrammar...), grammarLimit)
	if err != nil {
		return nil, err
	}
	return append(vocab, grammar...), nil
}

// interleave emits a short warm-up of review activities, then
// alternates new-item learn activities with the remaining review
// activities, per spec §4.3's interleaving requirement.
func interleave(due []models.LearningRecord, englishItems, japaneseItems []models.Item) []models.Activity {
	activities := make([]models.Activity, 0, len(due)+len(englishItems)+len(japaneseItems))

	warmUp := due
	rest := due
	if len(due) > warmUpCount {
		warmUp = due[:warmUpCount]
		rest = due[warmUpCount:]
	} else {
		rest = nil
	}

	for _, r := range warmUp {
		activities = append(activities, models.Activity{ItemID: r.ItemID, Kind: r.Kind, Mode: models.ActivityReview, Status: models.ActivityPlanned})
	}

	learnItems := append(append([]models.Item{}, englishItems...), japaneseItems...)

	reviewIdx, learnIdx := 0, 0
	for reviewIdx < len(rest) || learnIdx < len(learnItems) {
		if learnIdx < len(learnItems) {
			item := learnItems[learnIdx]
			mode := models.ActivityLearn
			if item.Kind == models.KindReading {
				mode = models.ActivityRead
			}
			activities = append(activities, models.Activity{ItemID: item.ItemID, Kind: item.Kind, Mode: mode, Status: models.ActivityPlanned})
			learnIdx++
		}
		if reviewIdx < len(rest) {
			r := rest[reviewIdx]
			activities = append(activities, models.Activity{ItemID: r.ItemID, Kind: r.Kind, Mode: models.ActivityReview, Status: models.ActivityPlanned})
			reviewIdx++
		}
	}

	return activities
}
