package session

import (
	"time"

	"github.com/example/bilingualtutor/internal/models"
)

// Outcome is the post-session roll-up spec §4.3 describes, derived
// entirely from LearningRecords touched inside the session window —
// never persisted separately.
type Outcome struct {
	ItemsAttempted  int                      `json:"items_attempted"`
	ItemsCorrect    int                      `json:"items_correct"`
	NewItemsLearned int                      `json:"new_items_learned"`
	ItemsMastered   int                      `json:"items_mastered"`
	ReviewHitRate   float64                  `json:"review_hit_rate"`
	MinutesByLang   map[models.Language]int  `json:"minutes_by_language"`
}

// Attempt is one recorded attempt used to compute an Outcome, pairing
// the before/after record state so first-attempt and mastery-transition
// detection do not require a second store round trip.
type Attempt struct {
	Before   *models.LearningRecord
	After    models.LearningRecord
	Language models.Language
	Correct  bool
	Minutes  int
}

// EvaluateOutcome computes Outcome from the attempts recorded during a
// session window (spec §4.3's progress roll-up).
func EvaluateOutcome(attempts []Attempt) Outcome {
	out := Outcome{MinutesByLang: map[models.Language]int{}}

	var reviewAttempts, reviewCorrect int

	for _, a := range attempts {
		out.ItemsAttempted++
		if a.Correct {
			out.ItemsCorrect++
		}
		out.MinutesByLang[a.Language] += a.Minutes

		if a.Before == nil {
			out.NewItemsLearned++
		} else {
			reviewAttempts++
			if a.Correct {
				reviewCorrect++
			}
		}

		wasMastered := a.Before != nil && a.Before.MasteryLevel >= 5
		if a.After.MasteryLevel >= 5 && !wasMastered {
			out.ItemsMastered++
		}
	}

	if reviewAttempts > 0 {
		out.ReviewHitRate = float64(reviewCorrect) / float64(reviewAttempts)
	}

	return out
}

// SetStatus transitions an Activity's status, per spec §4.3's lifecycle
// planned -> in_progress -> completed|abandoned. Abandoned activities
// leave any existing LearningRecord untouched; this function only
// mutates the in-memory Activity, it never touches the store.
func SetStatus(session *models.Session, itemID int64, status models.ActivityStatus) {
	for i := range session.Activities {
		if session.Activities[i].ItemID == itemID {
			session.Activities[i].Status = status
			return
		}
	}
}

// End marks the session ended at now.
func End(session *models.Session, now time.Time) {
	t := now
	session.EndedAt = &t
}
