// Package report answers study questions over the stored review state:
// what is due, what is weak, and how each exam is going.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/storage"
)

// Filter narrows a report to an exam, a single version, or both. Zero values match everything.
type Filter struct {
	ExamID    uuid.UUID
	VersionID uuid.UUID
}

// QuestionReport is one question key with its review state.
type QuestionReport struct {
	QuestionKey    uuid.UUID
	QuestionID     uuid.UUID
	Text           string
	Difficulty     *int
	TotalAttempts  int
	CorrectCount   int
	WrongCount     int
	Accuracy       float64
	DueAt          *time.Time
	LastSeenAt     *time.Time
	LastAnsweredAt *time.Time
}

// Service builds reports from the store.
type Service struct {
	db *storage.DB
}

// NewService returns a Service reading from db.
func NewService(db *storage.DB) *Service {
	return &Service{db: db}
}

// answerInfo aggregates the stored answers of one question key.
type answerInfo struct {
	total int
	last  time.Time
}

// scope is the set of question keys in the filtered versions, each mapped to
// the question row of its newest version, plus answer aggregates.
type scope struct {
	questions map[uuid.UUID]domain.Question
	answers   map[uuid.UUID]answerInfo
}

func (s *Service) load(ctx context.Context, f Filter) (*scope, error) {
	versions, err := s.db.ListVersions(ctx, f.ExamID)
	if err != nil {
		return nil, err
	}
	sc := &scope{
		questions: make(map[uuid.UUID]domain.Question),
		answers:   make(map[uuid.UUID]answerInfo),
	}
	inScope := make(map[uuid.UUID]bool)
	// Versions are ordered by number, so later rows overwrite older text.
	for _, v := range versions {
		if f.VersionID != uuid.Nil && v.ID != f.VersionID {
			continue
		}
		inScope[v.ID] = true
		questions, err := s.db.ListQuestions(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			sc.questions[q.QuestionKey] = q
		}
	}
	if len(sc.questions) == 0 {
		return sc, nil
	}

	answers, err := s.db.ListVersionAnswers(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if !inScope[a.ExamVersionID] {
			continue
		}
		info := sc.answers[a.QuestionKey]
		info.total++
		if a.AnsweredAt.After(info.last) {
			info.last = a.AnsweredAt
		}
		sc.answers[a.QuestionKey] = info
	}
	return sc, nil
}

func (sc *scope) stats(ctx context.Context, db *storage.DB) ([]domain.QuestionStats, error) {
	all, err := db.ListStats(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.QuestionStats
	for _, st := range all {
		if _, ok := sc.questions[st.QuestionKey]; ok {
			matched = append(matched, st)
		}
	}
	return matched, nil
}

func (sc *scope) report(st domain.QuestionStats) QuestionReport {
	q := sc.questions[st.QuestionKey]
	r := QuestionReport{
		QuestionKey:   st.QuestionKey,
		QuestionID:    q.ID,
		Text:          q.Text,
		Difficulty:    q.Difficulty,
		TotalAttempts: st.Total(),
		CorrectCount:  st.CorrectCount,
		WrongCount:    st.WrongCount,
		Accuracy:      st.Accuracy(),
		DueAt:         st.DueAt,
		LastSeenAt:    st.LastSeenAt,
	}
	if info, ok := sc.answers[st.QuestionKey]; ok {
		r.TotalAttempts = info.total
		last := info.last
		r.LastAnsweredAt = &last
	}
	return r
}

// Due returns the questions whose review date is at or before asOf, earliest first.
func (s *Service) Due(ctx context.Context, f Filter, asOf time.Time) ([]QuestionReport, error) {
	sc, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	stats, err := sc.stats(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var due []QuestionReport
	for _, st := range stats {
		if st.IsDue(asOf) {
			due = append(due, sc.report(st))
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt.Before(*due[j].DueAt)
	})
	return due, nil
}

// WeakOptions bounds what counts as a weak question.
type WeakOptions struct {
	MinAttempts int
	MaxAccuracy float64
}

// DefaultWeakOptions requires three answers and at most 60% accuracy.
func DefaultWeakOptions() WeakOptions {
	return WeakOptions{MinAttempts: 3, MaxAccuracy: 0.6}
}

// Weak returns questions answered at least MinAttempts times with accuracy at
// most MaxAccuracy, least accurate first and most wrong answers breaking ties.
func (s *Service) Weak(ctx context.Context, f Filter, opts WeakOptions) ([]QuestionReport, error) {
	sc, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	stats, err := sc.stats(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var weak []QuestionReport
	for _, st := range stats {
		if st.Total() >= opts.MinAttempts && st.Accuracy() <= opts.MaxAccuracy {
			weak = append(weak, sc.report(st))
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].Accuracy != weak[j].Accuracy {
			return weak[i].Accuracy < weak[j].Accuracy
		}
		return weak[i].WrongCount > weak[j].WrongCount
	})
	return weak, nil
}

// ExamSummary is one row of the dashboard.
type ExamSummary struct {
	ExamID        uuid.UUID
	Name          string
	TotalAttempts int
	AverageScore  float64
	LastAttemptAt *time.Time
}

// Dashboard summarizes the attempts of every non-deleted exam, ordered by name.
func (s *Service) Dashboard(ctx context.Context) ([]ExamSummary, error) {
	exams, err := s.db.ListExams(ctx, false)
	if err != nil {
		return nil, err
	}
	versions, err := s.db.ListVersions(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	examOf := make(map[uuid.UUID]uuid.UUID, len(versions))
	for _, v := range versions {
		examOf[v.ID] = v.ExamID
	}
	attempts, err := s.db.ListAttempts(ctx)
	if err != nil {
		return nil, err
	}

	byExam := make(map[uuid.UUID][]domain.Attempt)
	for _, a := range attempts {
		byExam[examOf[a.ExamVersionID]] = append(byExam[examOf[a.ExamVersionID]], a)
	}

	summaries := make([]ExamSummary, 0, len(exams))
	for _, e := range exams {
		sum := ExamSummary{ExamID: e.ID, Name: e.Name}
		var total float64
		for _, a := range byExam[e.ID] {
			sum.TotalAttempts++
			total += a.ScorePercent
			at := a.StartedAt
			if a.FinishedAt != nil {
				at = *a.FinishedAt
			}
			if sum.LastAttemptAt == nil || at.After(*sum.LastAttemptAt) {
				sum.LastAttemptAt = &at
			}
		}
		if sum.TotalAttempts > 0 {
			sum.AverageScore = total / float64(sum.TotalAttempts)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
