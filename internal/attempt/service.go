// Package attempt runs exam attempts and feeds their answers into the
// spaced-repetition state of each question.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/exam"
	"github.com/conorfennell/quizzer/internal/storage"
	"github.com/conorfennell/quizzer/internal/study"
)

var (
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptFinished     = errors.New("attempt is already finished")
	ErrEmptyVersion        = errors.New("exam version has no questions")
	ErrQuestionNotInExam   = errors.New("question does not belong to the attempt's version")
	ErrOptionNotInQuestion = errors.New("option does not belong to the question")
)

// Service starts, records and finishes attempts.
type Service struct {
	db      *storage.DB
	updater *study.Updater
	now     func() time.Time
}

// NewService returns a Service that applies finished attempts with updater.
func NewService(db *storage.DB, updater *study.Updater) *Service {
	return &Service{db: db, updater: updater, now: time.Now}
}

// Session is a started attempt together with the questions to answer.
type Session struct {
	Attempt domain.Attempt
	Exam    domain.Exam
	Version domain.ExamVersion
}

// Start opens an attempt on the latest published version of a non-deleted exam.
func (s *Service) Start(ctx context.Context, examID uuid.UUID) (*Session, error) {
	var session *Session
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.FindExam(ctx, examID)
		if err != nil {
			return err
		}
		if e == nil || e.IsDeleted {
			return exam.ErrExamNotFound
		}
		v, err := q.FindLatestPublished(ctx, examID)
		if err != nil {
			return err
		}
		if v == nil {
			return exam.ErrNoPublishedVersion
		}
		if v.Questions, err = q.ListQuestions(ctx, v.ID); err != nil {
			return err
		}
		if len(v.Questions) == 0 {
			return ErrEmptyVersion
		}

		a := domain.Attempt{
			ID:            domain.NewID(),
			ExamVersionID: v.ID,
			StartedAt:     s.now().UTC(),
			TotalCount:    len(v.Questions),
		}
		if err := q.InsertAttempt(ctx, &a); err != nil {
			return err
		}
		session = &Session{Attempt: a, Exam: *e, Version: *v}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Attempt started",
		"attempt_id", session.Attempt.ID,
		"exam", session.Exam.Name,
		"version", session.Version.VersionNumber,
		"questions", session.Attempt.TotalCount,
	)
	return session, nil
}

// Answer is the choice made for one question.
type Answer struct {
	AttemptID    uuid.UUID
	QuestionID   uuid.UUID
	OptionID     uuid.UUID
	FlaggedDoubt bool
	SecondsSpent int
}

// SaveAnswer records or replaces the answer to one question of an open attempt.
func (s *Service) SaveAnswer(ctx context.Context, in Answer) (*domain.AttemptAnswer, error) {
	var saved *domain.AttemptAnswer
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		a, err := openAttempt(ctx, q, in.AttemptID)
		if err != nil {
			return err
		}
		question, err := q.FindQuestion(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		if question == nil || question.ExamVersionID != a.ExamVersionID {
			return ErrQuestionNotInExam
		}

		var selected *domain.Option
		for i := range question.Options {
			if question.Options[i].ID == in.OptionID {
				selected = &question.Options[i]
				break
			}
		}
		if selected == nil {
			return ErrOptionNotInQuestion
		}

		answer := &domain.AttemptAnswer{
			AttemptID:         a.ID,
			QuestionID:        question.ID,
			QuestionKey:       question.QuestionKey,
			SelectedOptionID:  selected.ID,
			SelectedOptionKey: selected.OptionKey,
			IsCorrect:         selected.ID == question.CorrectOptionID,
			AnsweredAt:        s.now().UTC(),
			SecondsSpent:      max(in.SecondsSpent, 0),
			FlaggedDoubt:      in.FlaggedDoubt,
		}
		if err := q.UpsertAnswer(ctx, answer); err != nil {
			return err
		}
		saved = answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Answer saved", "attempt_id", saved.AttemptID, "question_key", saved.QuestionKey, "correct", saved.IsCorrect)
	return saved, nil
}

func openAttempt(ctx context.Context, q *storage.Queries, id uuid.UUID) (*domain.Attempt, error) {
	a, err := q.FindAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAttemptNotFound
	}
	if a.Finished() {
		return nil, ErrAttemptFinished
	}
	return a, nil
}

// Finish scores an attempt, closes it and folds its answers into the review
// state of every question answered. Everything is stored in one transaction.
func (s *Service) Finish(ctx context.Context, attemptID uuid.UUID) (*domain.Attempt, error) {
	var finished *domain.Attempt
	var created, updated int
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		a, err := openAttempt(ctx, q, attemptID)
		if err != nil {
			return err
		}
		answers, err := q.ListAnswers(ctx, a.ID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		score(a, answers, now)
		if err := q.UpdateAttempt(ctx, a); err != nil {
			return err
		}

		events := make([]domain.AnswerEvent, len(answers))
		keys := make([]uuid.UUID, 0, len(answers))
		for i, ans := range answers {
			events[i] = ans.Event()
			keys = append(keys, ans.QuestionKey)
		}
		statsByKey, err := q.FindStatsByKeys(ctx, keys)
		if err != nil {
			return err
		}
		existing := make(map[uuid.UUID]bool, len(statsByKey))
		for k := range statsByKey {
			existing[k] = true
		}

		newStats, err := s.updater.ApplyAttempt(events, statsByKey, now)
		if err != nil {
			return fmt.Errorf("failed to apply attempt %s: %w", a.ID, err)
		}
		for _, st := range newStats {
			if err := q.InsertStats(ctx, st); err != nil {
				return err
			}
		}
		for k := range existing {
			if err := q.UpdateStats(ctx, statsByKey[k]); err != nil {
				return err
			}
		}

		finished = a
		created, updated = len(newStats), len(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Attempt finished",
		"attempt_id", finished.ID,
		"correct", finished.CorrectCount,
		"total", finished.TotalCount,
		"score", finished.ScorePercent,
		"stats_created", created,
		"stats_updated", updated,
	)
	return finished, nil
}

// score fills the result fields of a from its answers and closes it at now.
func score(a *domain.Attempt, answers []domain.AttemptAnswer, now time.Time) {
	correct := 0
	for _, ans := range answers {
		if ans.IsCorrect {
			correct++
		}
	}
	if a.TotalCount == 0 {
		a.TotalCount = len(answers)
	}
	a.CorrectCount = correct
	a.ScorePercent = 0
	if a.TotalCount > 0 {
		a.ScorePercent = float64(correct) * 100 / float64(a.TotalCount)
	}
	a.DurationSeconds = max(int(now.Sub(a.StartedAt).Seconds()), 0)
	a.FinishedAt = &now
}
