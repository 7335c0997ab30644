package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

const statsColumns = `id, question_key, correct_count, wrong_count, ease_factor, interval_days,
	last_seen_at, last_correct_at, due_at`

func scanStats(row interface{ Scan(...any) error }) (*domain.QuestionStats, error) {
	var st domain.QuestionStats
	var lastSeen, lastCorrect, due sql.NullTime
	if err := row.Scan(
		&st.ID,
		&st.QuestionKey,
		&st.CorrectCount,
		&st.WrongCount,
		&st.EaseFactor,
		&st.IntervalDays,
		&lastSeen,
		&lastCorrect,
		&due,
	); err != nil {
		return nil, err
	}
	st.LastSeenAt = timePtr(lastSeen)
	st.LastCorrectAt = timePtr(lastCorrect)
	st.DueAt = timePtr(due)
	return &st, nil
}

// InsertStats inserts a newly created stats record.
func (s *Queries) InsertStats(ctx context.Context, st *domain.QuestionStats) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO question_stats (id, question_key, correct_count, wrong_count, ease_factor, interval_days,
			last_seen_at, last_correct_at, due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID,
		st.QuestionKey,
		st.CorrectCount,
		st.WrongCount,
		st.EaseFactor,
		st.IntervalDays,
		nullTime(st.LastSeenAt),
		nullTime(st.LastCorrectAt),
		nullTime(st.DueAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats for question %s: %w", st.QuestionKey, err)
	}
	return nil
}

// UpdateStats stores the review state of an existing record.
func (s *Queries) UpdateStats(ctx context.Context, st *domain.QuestionStats) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE question_stats
		SET correct_count = ?, wrong_count = ?, ease_factor = ?, interval_days = ?,
			last_seen_at = ?, last_correct_at = ?, due_at = ?
		WHERE question_key = ?
	`,
		st.CorrectCount,
		st.WrongCount,
		st.EaseFactor,
		st.IntervalDays,
		nullTime(st.LastSeenAt),
		nullTime(st.LastCorrectAt),
		nullTime(st.DueAt),
		st.QuestionKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats for question %s: %w", st.QuestionKey, err)
	}
	return nil
}

// FindStatsByKeys loads the records that exist for keys, indexed by key.
func (s *Queries) FindStatsByKeys(ctx context.Context, keys []uuid.UUID) (map[uuid.UUID]*domain.QuestionStats, error) {
	result := make(map[uuid.UUID]*domain.QuestionStats, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+statsColumns+` FROM question_stats
		WHERE question_key IN (`+placeholders(len(keys))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find stats by keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		result[st.QuestionKey] = st
	}
	return result, rows.Err()
}

// ListStats returns every stats record ordered by due date, unscheduled last.
func (s *Queries) ListStats(ctx context.Context) ([]domain.QuestionStats, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+statsColumns+` FROM question_stats
		ORDER BY due_at IS NULL, due_at, question_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.QuestionStats
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats = append(stats, *st)
	}
	return stats, rows.Err()
}
