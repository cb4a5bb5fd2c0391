// Package scheduler implements the SM-2-variant spaced repetition state
// machine (spec §4.1): given a LearningRecord and the quality of the
// latest attempt, it computes the next state, and orders due records
// for review. It is pure — every function here is safe to call
// concurrently and touches no store.
package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/example/bilingualtutor/internal/models"
)

const (
	initialEasinessFactor = 2.5
	minEasinessFactor      = 1.3
	minIntervalDays        = 1
	maxIntervalDays        = 365
	secondIntervalDays     = 6
)

// Quality is the graded recall quality in 0..5. The default mapping used
// by Update when only a bool is available is correct->5, incorrect->2.
type Quality int

const (
	QualityBlackout          Quality = 0
	QualityIncorrect         Quality = 1
	QualityIncorrectFamiliar Quality = 2
	QualityCorrectDifficult  Quality = 3
	QualityCorrectHesitation Quality = 4
	QualityPerfect           Quality = 5
)

// QualityFor maps a plain correct/incorrect attempt to the default
// quality grade spec §4.1 specifies.
func QualityFor(correct bool) Quality {
	if correct {
		return QualityPerfect
	}
	return QualityIncorrectFamiliar
}

// Update computes the next LearningRecord state from the current one (or
// a zero-value record on first attempt) and the outcome of one attempt,
// implementing spec §4.1 steps 1-6 exactly.
func Update(current *models.LearningRecord, userID string, itemID int64, kind models.Kind, correct bool, now time.Time) models.LearningRecord {
	firstAttempt := current == nil

	var prev models.LearningRecord
	if current != nil {
		prev = *current
	} else {
		prev = models.LearningRecord{
			UserID:         userID,
			ItemID:         itemID,
			Kind:           kind,
			EasinessFactor: initialEasinessFactor,
		}
	}

	ef := prev.EasinessFactor
	if ef == 0 {
		ef = initialEasinessFactor
	}

	q := QualityFor(correct)

	// Step 1: EF' = max(1.3, EF + (0.1 - (5-q)(0.08 + (5-q)*0.02))).
	// A clean record's first attempt establishes the baseline easiness
	// factor rather than perturbing it — there is no prior review for
	// the delta to be measured against yet.
	newEF := ef
	if !firstAttempt {
		newEF = ef + (0.1 - float64(5-int(q))*(0.08+float64(5-int(q))*0.02))
	}
	if newEF < minEasinessFactor {
		newEF = minEasinessFactor
	}

	iPrev := prev.IntervalDays()

	var newInterval int
	var newConsecutive int

	if correct {
		newConsecutive = prev.ConsecutiveCorrect + 1
		switch newConsecutive {
		case 1:
			newInterval = 1
		case 2:
			newInterval = secondIntervalDays
		default:
			computed := int(math.Floor(float64(iPrev) * newEF))
			if computed < minIntervalDays {
				computed = minIntervalDays
			}
			if computed > maxIntervalDays {
				computed = maxIntervalDays
			}
			newInterval = computed
		}
	} else {
		newConsecutive = 0
		newInterval = 1
	}

	next := models.LearningRecord{
		UserID:             prev.UserID,
		ItemID:             prev.ItemID,
		Kind:               prev.Kind,
		LearnCount:         prev.LearnCount + 1,
		CorrectCount:       prev.CorrectCount,
		ConsecutiveCorrect: newConsecutive,
		EasinessFactor:     newEF,
		LastReviewAt:       now,
		NextReviewAt:       now.AddDate(0, 0, newInterval),
	}
	if correct {
		next.CorrectCount = prev.CorrectCount + 1
	}

	next.MemoryStrength = memoryStrength(next.CorrectCount, next.LearnCount)
	next.MasteryLevel = masteryLevel(next.CorrectCount)

	return next
}

func memoryStrength(correctCount, learnCount int) float64 {
	if learnCount <= 0 {
		return 0
	}
	return float64(correctCount) / float64(learnCount)
}

func masteryLevel(correctCount int) int {
	level := correctCount / 2
	if level > 5 {
		level = 5
	}
	return level
}

// SortDue orders records by (next_review_at asc, memory_strength asc,
// item_id asc) per spec §4.1/§5, mutating the slice in place.
func SortDue(records []models.LearningRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		if a.MemoryStrength != b.MemoryStrength {
			return a.MemoryStrength < b.MemoryStrength
		}
		return a.ItemID < b.ItemID
	})
}

// PriorityScore computes the bulk-prioritization score from spec §4.1,
// used only by optional batch runners — never by the per-user due list.
func PriorityScore(daysOverdue float64, avgRecentPerformance float64, levelWeight float64, qualityScore float64) float64 {
	overdue := daysOverdue
	if overdue < 0 {
		overdue = 0
	}
	return 10*overdue + 5*(1-avgRecentPerformance) + levelWeight + 2*qualityScore
}
