package attempt

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

// HistoryItem is one attempt with the exam and version it ran against.
type HistoryItem struct {
	Attempt       domain.Attempt
	ExamID        uuid.UUID
	ExamName      string
	VersionNumber int
}

// History returns attempts newest first. A nil examID returns every exam's attempts.
// Attempts of deleted exams are hidden until the exam is restored.
func (s *Service) History(ctx context.Context, examID uuid.UUID) ([]HistoryItem, error) {
	exams, err := s.db.ListExams(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(exams))
	for _, e := range exams {
		names[e.ID] = e.Name
	}
	versions, err := s.db.ListVersions(ctx, examID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.ExamVersion, len(versions))
	for _, v := range versions {
		byID[v.ID] = v
	}

	attempts, err := s.db.ListAttempts(ctx)
	if err != nil {
		return nil, err
	}
	var items []HistoryItem
	for _, a := range attempts {
		v, ok := byID[a.ExamVersionID]
		if !ok {
			continue
		}
		if _, active := names[v.ExamID]; !active {
			continue
		}
		items = append(items, HistoryItem{
			Attempt:       a,
			ExamID:        v.ExamID,
			ExamName:      names[v.ExamID],
			VersionNumber: v.VersionNumber,
		})
	}
	return items, nil
}

// AnswerDetail is a stored answer with the texts it refers to.
type AnswerDetail struct {
	domain.AttemptAnswer
	QuestionText       string
	SelectedOptionText string
	CorrectOptionText  string
	OrderIndex         int
}

// Detail is a full attempt report.
type Detail struct {
	HistoryItem
	Answers []AnswerDetail
}

// Detail returns an attempt with its answers in question order.
func (s *Service) Detail(ctx context.Context, attemptID uuid.UUID) (*Detail, error) {
	a, err := s.db.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAttemptNotFound
	}
	v, err := s.db.FindVersion(ctx, a.ExamVersionID)
	if err != nil {
		return nil, err
	}
	d := &Detail{HistoryItem: HistoryItem{Attempt: *a}}
	if v != nil {
		d.ExamID = v.ExamID
		d.VersionNumber = v.VersionNumber
		e, err := s.db.FindExam(ctx, v.ExamID)
		if err != nil {
			return nil, err
		}
		if e != nil {
			d.ExamName = e.Name
		}
	}

	questions, err := s.db.ListQuestions(ctx, a.ExamVersionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers, err := s.db.ListAnswers(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	for _, ans := range answers {
		ad := AnswerDetail{AttemptAnswer: ans, QuestionText: "(question)", SelectedOptionText: "(option)"}
		if q, ok := byID[ans.QuestionID]; ok {
			ad.QuestionText = q.Text
			ad.OrderIndex = q.OrderIndex
			for _, o := range q.Options {
				if o.ID == ans.SelectedOptionID {
					ad.SelectedOptionText = o.Text
				}
			}
			if c, ok := q.CorrectOption(); ok {
				ad.CorrectOptionText = c.Text
			}
		}
		d.Answers = append(d.Answers, ad)
	}
	sort.SliceStable(d.Answers, func(i, j int) bool {
		return d.Answers[i].OrderIndex < d.Answers[j].OrderIndex
	})
	return d, nil
}
