package study

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/quizzer/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestUpdater(t *testing.T) *Updater {
	t.Helper()
	u, err := NewUpdater(DefaultSettings())
	require.NoError(t, err)
	return u
}

func days(n int) time.Time {
	return t0.AddDate(0, 0, n)
}

func TestApplyResult_WrongResetsInterval(t *testing.T) {
	u := newTestUpdater(t)
	stats := &domain.QuestionStats{IntervalDays: 10, EaseFactor: 2.5}

	require.NoError(t, u.ApplyResult(stats, false, t0))

	assert.Equal(t, 1, stats.IntervalDays)
	assert.InDelta(t, 2.3, stats.EaseFactor, 1e-9)
	assert.Equal(t, 1, stats.WrongCount)
	assert.Equal(t, 0, stats.CorrectCount)
	assert.Nil(t, stats.LastCorrectAt)
	require.NotNil(t, stats.DueAt)
	assert.Equal(t, days(1), *stats.DueAt)
	assert.Equal(t, t0, *stats.LastSeenAt)
}

func TestApplyResult_CorrectGrowsInterval(t *testing.T) {
	u := newTestUpdater(t)
	stats := &domain.QuestionStats{IntervalDays: 1, EaseFactor: 2.5}

	require.NoError(t, u.ApplyResult(stats, true, t0))

	assert.InDelta(t, 2.55, stats.EaseFactor, 1e-9)
	assert.Equal(t, 3, stats.IntervalDays)
	assert.Equal(t, 1, stats.CorrectCount)
	require.NotNil(t, stats.LastCorrectAt)
	assert.Equal(t, t0, *stats.LastCorrectAt)
	assert.Equal(t, days(3), *stats.DueAt)
}

func TestApplyResult_RoundsHalfToEven(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxEaseFactor = 2.5
	u, err := NewUpdater(settings)
	require.NoError(t, err)

	testCases := []struct {
		interval int
		expected int
	}{
		{interval: 1, expected: 2},  // 2.5
		{interval: 3, expected: 8},  // 7.5
		{interval: 5, expected: 12}, // 12.5
		{interval: 2, expected: 5},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d*2.5", tc.interval), func(t *testing.T) {
			stats := &domain.QuestionStats{IntervalDays: tc.interval, EaseFactor: 2.5}
			require.NoError(t, u.ApplyResult(stats, true, t0))
			assert.Equal(t, 2.5, stats.EaseFactor)
			assert.Equal(t, tc.expected, stats.IntervalDays)
		})
	}
}

func TestApplyResult_ClampsToBounds(t *testing.T) {
	u := newTestUpdater(t)

	t.Run("interval capped at max", func(t *testing.T) {
		stats := &domain.QuestionStats{IntervalDays: 50, EaseFactor: 2.5}
		require.NoError(t, u.ApplyResult(stats, true, t0))
		assert.Equal(t, 60, stats.IntervalDays)
		assert.Equal(t, days(60), *stats.DueAt)
	})

	t.Run("ease capped at max", func(t *testing.T) {
		stats := &domain.QuestionStats{IntervalDays: 1, EaseFactor: 2.98}
		require.NoError(t, u.ApplyResult(stats, true, t0))
		assert.Equal(t, 3.0, stats.EaseFactor)
	})

	t.Run("ease floored at min", func(t *testing.T) {
		stats := &domain.QuestionStats{IntervalDays: 4, EaseFactor: 1.4}
		require.NoError(t, u.ApplyResult(stats, false, t0))
		assert.Equal(t, 1.3, stats.EaseFactor)
	})
}

func TestApplyResult_ResetsUninitializedFields(t *testing.T) {
	u := newTestUpdater(t)
	stats := &domain.QuestionStats{}

	require.NoError(t, u.ApplyResult(stats, true, t0))

	assert.InDelta(t, 2.55, stats.EaseFactor, 1e-9)
	assert.Equal(t, 3, stats.IntervalDays)
}

func TestApplyResult_NilStats(t *testing.T) {
	u := newTestUpdater(t)
	assert.ErrorIs(t, u.ApplyResult(nil, true, t0), ErrNilStats)
}

func TestApplyResult_Properties(t *testing.T) {
	u := newTestUpdater(t)
	s := u.Settings()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		stats := &domain.QuestionStats{
			IntervalDays: s.MinIntervalDays + rng.Intn(s.MaxIntervalDays-s.MinIntervalDays+1),
			EaseFactor:   s.MinEaseFactor + rng.Float64()*(s.MaxEaseFactor-s.MinEaseFactor),
		}
		now := t0
		for step := 0; step < 200; step++ {
			prevEase := stats.EaseFactor
			correct := rng.Intn(3) > 0
			now = now.Add(time.Duration(rng.Intn(72)) * time.Hour)

			require.NoError(t, u.ApplyResult(stats, correct, now))

			require.GreaterOrEqual(t, stats.EaseFactor, s.MinEaseFactor)
			require.LessOrEqual(t, stats.EaseFactor, s.MaxEaseFactor)
			require.GreaterOrEqual(t, stats.IntervalDays, s.MinIntervalDays)
			require.LessOrEqual(t, stats.IntervalDays, s.MaxIntervalDays)
			require.Equal(t, stats.LastSeenAt.AddDate(0, 0, stats.IntervalDays), *stats.DueAt)

			if correct {
				require.GreaterOrEqual(t, stats.EaseFactor, prevEase)
			} else {
				require.Equal(t, s.MinIntervalDays, stats.IntervalDays)
			}
		}
	}
}

func TestApplyAttempt_CreatesMissingOnce(t *testing.T) {
	u := newTestUpdater(t)
	key := uuid.New()
	statsByKey := map[uuid.UUID]*domain.QuestionStats{}

	created, err := u.ApplyAttempt([]domain.AnswerEvent{
		{QuestionKey: key, IsCorrect: false},
		{QuestionKey: key, IsCorrect: true},
	}, statsByKey, t0)
	require.NoError(t, err)

	require.Len(t, created, 1)
	stats := created[0]
	assert.Same(t, stats, statsByKey[key])
	assert.Equal(t, key, stats.QuestionKey)
	assert.Equal(t, 1, stats.CorrectCount)
	assert.Equal(t, 1, stats.WrongCount)
	// wrong: ease 2.3, interval 1; correct: ease 2.35, interval round(1 * 2.35) = 2
	assert.InDelta(t, 2.35, stats.EaseFactor, 1e-9)
	assert.Equal(t, 2, stats.IntervalDays)
	assert.Equal(t, days(2), *stats.DueAt)
}

func TestApplyAttempt_SeedsBeforeFirstResult(t *testing.T) {
	settings := DefaultSettings()
	settings.InitialIntervalDays = 4
	settings.InitialEaseFactor = 2.0
	u, err := NewUpdater(settings)
	require.NoError(t, err)

	key := uuid.New()
	statsByKey := map[uuid.UUID]*domain.QuestionStats{}
	created, err := u.ApplyAttempt([]domain.AnswerEvent{{QuestionKey: key, IsCorrect: true}}, statsByKey, t0)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.InDelta(t, 2.05, created[0].EaseFactor, 1e-9)
	assert.Equal(t, 8, created[0].IntervalDays, "round(4 * 2.05)")
}

func TestApplyAttempt_UpdatesExistingInPlace(t *testing.T) {
	u := newTestUpdater(t)
	known := uuid.New()
	fresh := uuid.New()
	existing := &domain.QuestionStats{QuestionKey: known, IntervalDays: 10, EaseFactor: 2.5, CorrectCount: 4}
	statsByKey := map[uuid.UUID]*domain.QuestionStats{known: existing}

	created, err := u.ApplyAttempt([]domain.AnswerEvent{
		{QuestionKey: known, IsCorrect: false},
		{QuestionKey: fresh, IsCorrect: true},
	}, statsByKey, t0)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, fresh, created[0].QuestionKey)
	assert.Len(t, statsByKey, 2)
	assert.Equal(t, 1, existing.IntervalDays)
	assert.Equal(t, 1, existing.WrongCount)
	assert.Equal(t, 4, existing.CorrectCount)
}

func TestApplyAttempt_Arguments(t *testing.T) {
	u := newTestUpdater(t)

	_, err := u.ApplyAttempt(nil, nil, t0)
	assert.ErrorIs(t, err, ErrNilStatsMap)

	created, err := u.ApplyAttempt(nil, map[uuid.UUID]*domain.QuestionStats{}, t0)
	assert.NoError(t, err)
	assert.Empty(t, created)
}

func TestApplyAttempt_OrderMatters(t *testing.T) {
	u := newTestUpdater(t)
	key := uuid.New()

	run := func(first, second bool) *domain.QuestionStats {
		m := map[uuid.UUID]*domain.QuestionStats{}
		_, err := u.ApplyAttempt([]domain.AnswerEvent{
			{QuestionKey: key, IsCorrect: first},
			{QuestionKey: key, IsCorrect: second},
		}, m, t0)
		require.NoError(t, err)
		return m[key]
	}

	wrongThenRight := run(false, true)
	rightThenWrong := run(true, false)

	assert.Equal(t, 2, wrongThenRight.IntervalDays)
	assert.Equal(t, 1, rightThenWrong.IntervalDays)
	assert.NotNil(t, wrongThenRight.LastCorrectAt)
	assert.NotNil(t, rightThenWrong.LastCorrectAt)
}
