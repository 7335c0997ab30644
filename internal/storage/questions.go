package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

// InsertQuestion inserts a question together with its options.
// IDs must already be assigned so CorrectOptionID can reference an option row.
func (s *Queries) InsertQuestion(ctx context.Context, q *domain.Question) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO questions (id, exam_version_id, question_key, text, explanation, order_index, difficulty, correct_option_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID,
		q.ExamVersionID,
		q.QuestionKey,
		q.Text,
		q.Explanation,
		q.OrderIndex,
		nullInt(q.Difficulty),
		q.CorrectOptionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question %s: %w", q.QuestionKey, err)
	}

	for _, o := range q.Options {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO options (id, question_id, option_key, text, order_index)
			VALUES (?, ?, ?, ?, ?)
		`, o.ID, q.ID, o.OptionKey, o.Text, o.OrderIndex)
		if err != nil {
			return fmt.Errorf("failed to insert option %s of question %s: %w", o.OptionKey, q.QuestionKey, err)
		}
	}
	return nil
}

// DeleteVersionQuestions removes every question and option of a version.
func (s *Queries) DeleteVersionQuestions(ctx context.Context, versionID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM options WHERE question_id IN (SELECT id FROM questions WHERE exam_version_id = ?)
	`, versionID)
	if err != nil {
		return fmt.Errorf("failed to delete options of version %s: %w", versionID, err)
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM questions WHERE exam_version_id = ?`, versionID); err != nil {
		return fmt.Errorf("failed to delete questions of version %s: %w", versionID, err)
	}
	return nil
}

// CountQuestions returns the number of questions in a version.
func (s *Queries) CountQuestions(ctx context.Context, versionID uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE exam_version_id = ?`, versionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions of version %s: %w", versionID, err)
	}
	return n, nil
}

const questionColumns = `id, exam_version_id, question_key, text, explanation, order_index, difficulty, correct_option_id`

func scanQuestion(row interface{ Scan(...any) error }) (*domain.Question, error) {
	var q domain.Question
	var difficulty sql.NullInt64
	if err := row.Scan(
		&q.ID,
		&q.ExamVersionID,
		&q.QuestionKey,
		&q.Text,
		&q.Explanation,
		&q.OrderIndex,
		&difficulty,
		&q.CorrectOptionID,
	); err != nil {
		return nil, err
	}
	q.Difficulty = intPtr(difficulty)
	return &q, nil
}

// ListQuestions returns the questions of a version in order, with options loaded.
func (s *Queries) ListQuestions(ctx context.Context, versionID uuid.UUID) ([]domain.Question, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE exam_version_id = ?
		ORDER BY order_index, id
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions of version %s: %w", versionID, err)
	}

	var questions []domain.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		index[q.ID] = len(questions)
		questions = append(questions, *q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list questions of version %s: %w", versionID, err)
	}

	options, err := s.listOptions(ctx, `
		SELECT o.id, o.question_id, o.option_key, o.text, o.order_index
		FROM options o JOIN questions q ON q.id = o.question_id
		WHERE q.exam_version_id = ?
		ORDER BY o.order_index, o.id
	`, versionID)
	if err != nil {
		return nil, err
	}
	for _, o := range options {
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, nil
}

// FindQuestion retrieves a question by ID, with options loaded.
func (s *Queries) FindQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	q, err := scanQuestion(s.q.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find question %s: %w", id, err)
	}

	options, err := s.listOptions(ctx, `
		SELECT id, question_id, option_key, text, order_index
		FROM options WHERE question_id = ?
		ORDER BY order_index, id
	`, id)
	if err != nil {
		return nil, err
	}
	q.Options = options
	return q, nil
}

func (s *Queries) listOptions(ctx context.Context, query string, args ...any) ([]domain.Option, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionKey, &o.Text, &o.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan option row: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
