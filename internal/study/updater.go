package study

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

var (
	// ErrNilStats is returned when ApplyResult is handed a nil record.
	ErrNilStats = errors.New("study: stats must not be nil")
	// ErrNilStatsMap is returned when ApplyAttempt is handed a nil map.
	ErrNilStatsMap = errors.New("study: stats map must not be nil")
)

// Updater applies answer outcomes to per-question review state.
type Updater struct {
	settings Settings
}

// NewUpdater validates the settings and returns an updater bound to them.
func NewUpdater(settings Settings) (*Updater, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Updater{settings: settings}, nil
}

// Settings returns the configuration the updater was built with.
func (u *Updater) Settings() Settings {
	return u.settings
}

// CreateStats returns an unseen record for key, seeded with the initial interval and ease.
func (u *Updater) CreateStats(key uuid.UUID) *domain.QuestionStats {
	return &domain.QuestionStats{
		ID:           domain.NewID(),
		QuestionKey:  key,
		IntervalDays: u.settings.InitialIntervalDays,
		EaseFactor:   u.settings.InitialEaseFactor,
	}
}

// ApplyResult folds one answer into stats.
//
// A correct answer raises the ease factor and grows the interval by it; a wrong
// answer lowers the ease factor and resets the interval to the minimum. Both
// values are clamped to the configured bounds and DueAt is moved to
// now + IntervalDays. The interval product is rounded half to even.
func (u *Updater) ApplyResult(stats *domain.QuestionStats, correct bool, now time.Time) error {
	if stats == nil {
		return ErrNilStats
	}
	s := u.settings

	if stats.IntervalDays <= 0 {
		stats.IntervalDays = s.InitialIntervalDays
	}
	if stats.EaseFactor <= 0 {
		stats.EaseFactor = s.InitialEaseFactor
	}
	stats.LastSeenAt = timePtr(now)

	if correct {
		stats.LastCorrectAt = timePtr(now)
		stats.CorrectCount++
		stats.EaseFactor = math.Min(s.MaxEaseFactor, stats.EaseFactor+s.EaseFactorIncrement)

		next := int(math.RoundToEven(float64(stats.IntervalDays) * stats.EaseFactor))
		stats.IntervalDays = clampInt(next, s.MinIntervalDays, s.MaxIntervalDays)
	} else {
		stats.WrongCount++
		stats.EaseFactor = math.Max(s.MinEaseFactor, stats.EaseFactor-s.EaseFactorDecrement)
		stats.IntervalDays = s.MinIntervalDays
	}

	stats.DueAt = timePtr(now.AddDate(0, 0, stats.IntervalDays))
	return nil
}

// ApplyAttempt applies every answer of a finished attempt in order.
//
// statsByKey is borrowed for the duration of the call: missing keys are filled
// with fresh records and existing records are mutated in place. The returned
// slice holds only the records created here, each once, so the caller can
// insert those and update the rest.
func (u *Updater) ApplyAttempt(answers []domain.AnswerEvent, statsByKey map[uuid.UUID]*domain.QuestionStats, now time.Time) ([]*domain.QuestionStats, error) {
	if statsByKey == nil {
		return nil, ErrNilStatsMap
	}

	var created []*domain.QuestionStats
	for _, answer := range answers {
		stats, ok := statsByKey[answer.QuestionKey]
		if !ok {
			stats = u.CreateStats(answer.QuestionKey)
			statsByKey[answer.QuestionKey] = stats
			created = append(created, stats)
		}
		if err := u.ApplyResult(stats, answer.IsCorrect, now); err != nil {
			return created, err
		}
	}
	return created, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
