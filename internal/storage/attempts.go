package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

// InsertAttempt inserts a new, unfinished attempt.
func (s *Queries) InsertAttempt(ctx context.Context, a *domain.Attempt) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO attempts (id, exam_version_id, started_at, finished_at, total_count, correct_count, score_percent, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.ExamVersionID,
		a.StartedAt.UTC(),
		nullTime(a.FinishedAt),
		a.TotalCount,
		a.CorrectCount,
		a.ScorePercent,
		a.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt %s: %w", a.ID, err)
	}
	return nil
}

const attemptColumns = `id, exam_version_id, started_at, finished_at, total_count, correct_count, score_percent, duration_seconds`

func scanAttempt(row interface{ Scan(...any) error }) (*domain.Attempt, error) {
	var a domain.Attempt
	var finishedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.ExamVersionID,
		&a.StartedAt,
		&finishedAt,
		&a.TotalCount,
		&a.CorrectCount,
		&a.ScorePercent,
		&a.DurationSeconds,
	); err != nil {
		return nil, err
	}
	a.StartedAt = a.StartedAt.UTC()
	a.FinishedAt = timePtr(finishedAt)
	return &a, nil
}

// FindAttempt retrieves an attempt by ID.
func (s *Queries) FindAttempt(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	a, err := scanAttempt(s.q.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Attempt not found
		}
		return nil, fmt.Errorf("failed to find attempt %s: %w", id, err)
	}
	return a, nil
}

// UpdateAttempt stores the result fields of an attempt.
func (s *Queries) UpdateAttempt(ctx context.Context, a *domain.Attempt) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE attempts
		SET finished_at = ?, total_count = ?, correct_count = ?, score_percent = ?, duration_seconds = ?
		WHERE id = ?
	`,
		nullTime(a.FinishedAt),
		a.TotalCount,
		a.CorrectCount,
		a.ScorePercent,
		a.DurationSeconds,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attempt %s: %w", a.ID, err)
	}
	return nil
}

// ListAttempts returns every attempt, newest first.
func (s *Queries) ListAttempts(ctx context.Context) ([]domain.Attempt, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+attemptColumns+` FROM attempts ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// UpsertAnswer records the chosen option for a question, replacing an earlier choice.
func (s *Queries) UpsertAnswer(ctx context.Context, a *domain.AttemptAnswer) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO attempt_answers (attempt_id, question_id, question_key, selected_option_id, selected_option_key,
			is_correct, answered_at, seconds_spent, flagged_doubt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (attempt_id, question_id) DO UPDATE SET
			selected_option_id = excluded.selected_option_id,
			selected_option_key = excluded.selected_option_key,
			is_correct = excluded.is_correct,
			answered_at = excluded.answered_at,
			seconds_spent = excluded.seconds_spent,
			flagged_doubt = excluded.flagged_doubt
	`,
		a.AttemptID,
		a.QuestionID,
		a.QuestionKey,
		a.SelectedOptionID,
		a.SelectedOptionKey,
		a.IsCorrect,
		a.AnsweredAt.UTC(),
		a.SecondsSpent,
		a.FlaggedDoubt,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer for question %s of attempt %s: %w", a.QuestionID, a.AttemptID, err)
	}
	return nil
}

const answerColumns = `a.attempt_id, a.question_id, a.question_key, a.selected_option_id, a.selected_option_key,
	a.is_correct, a.answered_at, a.seconds_spent, a.flagged_doubt`

func scanAnswer(row interface{ Scan(...any) error }, extra ...any) (*domain.AttemptAnswer, error) {
	var a domain.AttemptAnswer
	dest := append([]any{
		&a.AttemptID,
		&a.QuestionID,
		&a.QuestionKey,
		&a.SelectedOptionID,
		&a.SelectedOptionKey,
		&a.IsCorrect,
		&a.AnsweredAt,
		&a.SecondsSpent,
		&a.FlaggedDoubt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.AnsweredAt = a.AnsweredAt.UTC()
	return &a, nil
}

// ListAnswers returns the answers of an attempt in the order they were given.
func (s *Queries) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]domain.AttemptAnswer, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+answerColumns+`
		FROM attempt_answers a
		WHERE a.attempt_id = ?
		ORDER BY a.answered_at, a.question_id
	`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers of attempt %s: %w", attemptID, err)
	}
	defer rows.Close()

	var answers []domain.AttemptAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

// VersionAnswer is an answer tagged with the version its attempt ran against.
type VersionAnswer struct {
	domain.AttemptAnswer
	ExamVersionID uuid.UUID
}

// ListVersionAnswers returns every stored answer with its attempt's version.
func (s *Queries) ListVersionAnswers(ctx context.Context) ([]VersionAnswer, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+answerColumns+`, t.exam_version_id
		FROM attempt_answers a JOIN attempts t ON t.id = a.attempt_id
		ORDER BY a.answered_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []VersionAnswer
	for rows.Next() {
		var versionID uuid.UUID
		a, err := scanAnswer(rows, &versionID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, VersionAnswer{AttemptAnswer: *a, ExamVersionID: versionID})
	}
	return answers, rows.Err()
}
