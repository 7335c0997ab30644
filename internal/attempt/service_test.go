package attempt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/exam"
	"github.com/conorfennell/quizzer/internal/storage"
	"github.com/conorfennell/quizzer/internal/study"
)

var ctx = context.Background()

type fixture struct {
	db      *storage.DB
	exams   *exam.Service
	service *Service
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	updater, err := study.NewUpdater(study.DefaultSettings())
	require.NoError(t, err)

	f := &fixture{
		db:    db,
		exams: exam.NewService(db),
		clock: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewService(db, updater)
	f.service.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

// publish creates an exam whose first version holds two questions, each with
// the first option correct.
func (f *fixture) publish(t *testing.T, name string) *domain.Exam {
	t.Helper()
	e, err := f.exams.CreateExam(ctx, name, "")
	require.NoError(t, err)
	draft, err := f.exams.CreateDraftVersion(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, f.exams.UpsertDraftContent(ctx, draft.ID, []exam.QuestionInput{
		{Text: "Q1", Options: []exam.OptionInput{{Text: "right"}, {Text: "wrong"}}},
		{Text: "Q2", Options: []exam.OptionInput{{Text: "right"}, {Text: "wrong"}}},
	}))
	_, err = f.exams.PublishVersion(ctx, draft.ID, "v1")
	require.NoError(t, err)
	return e
}

func answer(t *testing.T, f *fixture, session *Session, question int, correct bool) {
	t.Helper()
	q := session.Version.Questions[question]
	opt := q.Options[1]
	if correct {
		opt = q.Options[0]
	}
	_, err := f.service.SaveAnswer(ctx, Answer{AttemptID: session.Attempt.ID, QuestionID: q.ID, OptionID: opt.ID})
	require.NoError(t, err)
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	e := f.publish(t, "Networking")

	session, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.Attempt.TotalCount)
	assert.Equal(t, "Networking", session.Exam.Name)
	assert.Len(t, session.Version.Questions, 2)
	assert.False(t, session.Attempt.Finished())
}

func TestStart_Unavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Start(ctx, uuid.New())
	assert.ErrorIs(t, err, exam.ErrExamNotFound)

	e, err := f.exams.CreateExam(ctx, "Unpublished", "")
	require.NoError(t, err)
	_, err = f.service.Start(ctx, e.ID)
	assert.ErrorIs(t, err, exam.ErrNoPublishedVersion)

	deleted := f.publish(t, "Deleted")
	require.NoError(t, f.exams.SoftDelete(ctx, deleted.ID))
	_, err = f.service.Start(ctx, deleted.ID)
	assert.ErrorIs(t, err, exam.ErrExamNotFound)
}

func TestSaveAnswer(t *testing.T) {
	f := newFixture(t)
	e := f.publish(t, "Exam")
	session, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)
	q := session.Version.Questions[0]

	saved, err := f.service.SaveAnswer(ctx, Answer{
		AttemptID:    session.Attempt.ID,
		QuestionID:   q.ID,
		OptionID:     q.Options[0].ID,
		FlaggedDoubt: true,
		SecondsSpent: 12,
	})
	require.NoError(t, err)
	assert.True(t, saved.IsCorrect)
	assert.Equal(t, q.QuestionKey, saved.QuestionKey)
	assert.Equal(t, q.Options[0].OptionKey, saved.SelectedOptionKey)

	other := session.Version.Questions[1]
	_, err = f.service.SaveAnswer(ctx, Answer{AttemptID: session.Attempt.ID, QuestionID: q.ID, OptionID: other.Options[0].ID})
	assert.ErrorIs(t, err, ErrOptionNotInQuestion)

	_, err = f.service.SaveAnswer(ctx, Answer{AttemptID: session.Attempt.ID, QuestionID: uuid.New(), OptionID: q.Options[0].ID})
	assert.ErrorIs(t, err, ErrQuestionNotInExam)

	_, err = f.service.SaveAnswer(ctx, Answer{AttemptID: uuid.New(), QuestionID: q.ID, OptionID: q.Options[0].ID})
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestFinish_ScoresAndCreatesStats(t *testing.T) {
	f := newFixture(t)
	e := f.publish(t, "Exam")
	session, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)

	answer(t, f, session, 0, true)
	f.advance(time.Second)
	answer(t, f, session, 1, false)
	f.advance(90 * time.Second)

	finished, err := f.service.Finish(ctx, session.Attempt.ID)
	require.NoError(t, err)
	assert.True(t, finished.Finished())
	assert.Equal(t, 2, finished.TotalCount)
	assert.Equal(t, 1, finished.CorrectCount)
	assert.InDelta(t, 50.0, finished.ScorePercent, 1e-9)
	assert.Equal(t, 91, finished.DurationSeconds)

	keys := []uuid.UUID{session.Version.Questions[0].QuestionKey, session.Version.Questions[1].QuestionKey}
	stats, err := f.db.FindStatsByKeys(ctx, keys)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	right := stats[keys[0]]
	assert.Equal(t, 1, right.CorrectCount)
	assert.Equal(t, 3, right.IntervalDays)
	assert.InDelta(t, 2.55, right.EaseFactor, 1e-9)
	assert.True(t, f.clock.AddDate(0, 0, 3).Equal(*right.DueAt))

	wrong := stats[keys[1]]
	assert.Equal(t, 1, wrong.WrongCount)
	assert.Equal(t, 1, wrong.IntervalDays)
	assert.InDelta(t, 2.3, wrong.EaseFactor, 1e-9)

	_, err = f.service.Finish(ctx, session.Attempt.ID)
	assert.ErrorIs(t, err, ErrAttemptFinished)
	_, err = f.service.SaveAnswer(ctx, Answer{
		AttemptID:  session.Attempt.ID,
		QuestionID: session.Version.Questions[0].ID,
		OptionID:   session.Version.Questions[0].Options[0].ID,
	})
	assert.ErrorIs(t, err, ErrAttemptFinished)
}

func TestFinish_StatsFollowKeysAcrossVersions(t *testing.T) {
	f := newFixture(t)
	e := f.publish(t, "Exam")

	first, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)
	answer(t, f, first, 0, true)
	_, err = f.service.Finish(ctx, first.Attempt.ID)
	require.NoError(t, err)

	// Version 2 is a clone of version 1 and shares its keys.
	draft, err := f.exams.CreateDraftVersion(ctx, e.ID)
	require.NoError(t, err)
	_, err = f.exams.PublishVersion(ctx, draft.ID, "v2")
	require.NoError(t, err)

	f.advance(72 * time.Hour)
	second, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Version.ID, second.Version.ID)
	assert.Equal(t, first.Version.Questions[0].QuestionKey, second.Version.Questions[0].QuestionKey)
	answer(t, f, second, 0, true)
	_, err = f.service.Finish(ctx, second.Attempt.ID)
	require.NoError(t, err)

	all, err := f.db.ListStats(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "one record per question key")
	assert.Equal(t, 2, all[0].CorrectCount)
	// 3 * 2.6 = 7.8 rounds to 8.
	assert.Equal(t, 8, all[0].IntervalDays)
}

func TestFinish_NoAnswers(t *testing.T) {
	f := newFixture(t)
	e := f.publish(t, "Exam")
	session, err := f.service.Start(ctx, e.ID)
	require.NoError(t, err)

	finished, err := f.service.Finish(ctx, session.Attempt.ID)
	require.NoError(t, err)
	assert.Zero(t, finished.CorrectCount)
	assert.Zero(t, finished.ScorePercent)

	all, err := f.db.ListStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHistoryAndDetail(t *testing.T) {
	f := newFixture(t)
	a := f.publish(t, "Alpha")
	b := f.publish(t, "Beta")

	sa, err := f.service.Start(ctx, a.ID)
	require.NoError(t, err)
	answer(t, f, sa, 1, false)
	f.advance(time.Second)
	answer(t, f, sa, 0, true)
	_, err = f.service.Finish(ctx, sa.Attempt.ID)
	require.NoError(t, err)

	f.advance(time.Minute)
	sb, err := f.service.Start(ctx, b.ID)
	require.NoError(t, err)

	all, err := f.service.History(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sb.Attempt.ID, all[0].Attempt.ID, "newest first")
	assert.Equal(t, "Beta", all[0].ExamName)

	alpha, err := f.service.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, 1, alpha[0].VersionNumber)

	d, err := f.service.Detail(ctx, sa.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", d.ExamName)
	require.Len(t, d.Answers, 2)
	assert.Equal(t, "Q1", d.Answers[0].QuestionText, "answers follow question order")
	assert.Equal(t, "right", d.Answers[0].SelectedOptionText)
	assert.Equal(t, "wrong", d.Answers[1].SelectedOptionText)
	assert.Equal(t, "right", d.Answers[1].CorrectOptionText)

	_, err = f.service.Detail(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestHistory_HidesDeletedExams(t *testing.T) {
	f := newFixture(t)
	a := f.publish(t, "Alpha")
	b := f.publish(t, "Beta")

	sa, err := f.service.Start(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.exams.SoftDelete(ctx, b.ID))

	all, err := f.service.History(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, sa.Attempt.ID, all[0].Attempt.ID)

	beta, err := f.service.History(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, beta)

	require.NoError(t, f.exams.Restore(ctx, b.ID))
	all, err = f.service.History(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
