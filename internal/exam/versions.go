package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/storage"
)

// QuestionInput is one question of submitted draft content.
// A zero Key means a new question and gets a fresh key.
type QuestionInput struct {
	Key          uuid.UUID
	Text         string `validate:"required"`
	Explanation  string
	Difficulty   *int
	Options      []OptionInput `validate:"min=2,max=8,dive"`
	CorrectIndex int           `validate:"gte=0"`
}

// OptionInput is one answer choice of submitted draft content.
type OptionInput struct {
	Key  uuid.UUID
	Text string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateDraftVersion returns the exam's draft, creating it when there is none.
// A new draft copies the latest published version with its keys.
func (s *Service) CreateDraftVersion(ctx context.Context, examID uuid.UUID) (*domain.ExamVersion, error) {
	var draft *domain.ExamVersion
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		var err error
		draft, err = s.ensureDraft(ctx, q, examID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Service) ensureDraft(ctx context.Context, q *storage.Queries, examID uuid.UUID) (*domain.ExamVersion, error) {
	if _, err := activeExam(ctx, q, examID); err != nil {
		return nil, err
	}
	existing, err := q.FindDraft(ctx, examID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	published, err := q.FindLatestPublished(ctx, examID)
	if err != nil {
		return nil, err
	}
	draft := &domain.ExamVersion{
		ID:            domain.NewID(),
		ExamID:        examID,
		VersionNumber: 1,
		Status:        domain.Draft,
		CreatedAt:     s.now().UTC(),
	}
	if published != nil {
		draft.VersionNumber = published.VersionNumber + 1
	}
	if err := q.InsertVersion(ctx, draft); err != nil {
		return nil, err
	}

	if published != nil {
		source, err := q.ListQuestions(ctx, published.ID)
		if err != nil {
			return nil, err
		}
		for _, src := range source {
			clone := cloneQuestion(src, draft.ID)
			if err := q.InsertQuestion(ctx, &clone); err != nil {
				return nil, err
			}
		}
		slog.Info("Draft cloned from published version",
			"exam_id", examID,
			"from", published.VersionNumber,
			"to", draft.VersionNumber,
			"questions", len(source),
		)
	} else {
		slog.Info("Empty draft created", "exam_id", examID, "version", draft.VersionNumber)
	}
	return draft, nil
}

// cloneQuestion copies q into versionID with fresh row IDs and the same keys.
func cloneQuestion(q domain.Question, versionID uuid.UUID) domain.Question {
	clone := q
	clone.ID = domain.NewID()
	clone.ExamVersionID = versionID
	clone.CorrectOptionID = uuid.Nil
	clone.Options = make([]domain.Option, len(q.Options))
	for i, o := range q.Options {
		o.ID = domain.NewID()
		o.QuestionID = clone.ID
		if q.Options[i].ID == q.CorrectOptionID {
			clone.CorrectOptionID = o.ID
		}
		clone.Options[i] = o
	}
	return clone
}

// UpsertDraftContent replaces the questions of a draft with content.
func (s *Service) UpsertDraftContent(ctx context.Context, versionID uuid.UUID, content []QuestionInput) error {
	if err := validateContent(content); err != nil {
		return err
	}
	return s.db.InTx(ctx, func(q *storage.Queries) error {
		return replaceDraftContent(ctx, q, versionID, content)
	})
}

func replaceDraftContent(ctx context.Context, q *storage.Queries, versionID uuid.UUID, content []QuestionInput) error {
	v, err := draftVersion(ctx, q, versionID)
	if err != nil {
		return err
	}
	if err := q.DeleteVersionQuestions(ctx, v.ID); err != nil {
		return err
	}
	for _, question := range buildQuestions(v.ID, content) {
		if err := q.InsertQuestion(ctx, &question); err != nil {
			return err
		}
	}
	slog.Info("Draft content saved", "version_id", v.ID, "version", v.VersionNumber, "questions", len(content))
	return nil
}

// buildQuestions turns validated input into rows of versionID.
func buildQuestions(versionID uuid.UUID, content []QuestionInput) []domain.Question {
	questions := make([]domain.Question, 0, len(content))
	for i, in := range content {
		question := domain.Question{
			ID:            domain.NewID(),
			ExamVersionID: versionID,
			QuestionKey:   keyOrNew(in.Key),
			Text:          strings.TrimSpace(in.Text),
			Explanation:   strings.TrimSpace(in.Explanation),
			OrderIndex:    i,
			Difficulty:    in.Difficulty,
		}
		for j, opt := range in.Options {
			o := domain.Option{
				ID:         domain.NewID(),
				QuestionID: question.ID,
				OptionKey:  keyOrNew(opt.Key),
				Text:       strings.TrimSpace(opt.Text),
				OrderIndex: j,
			}
			if j == in.CorrectIndex {
				question.CorrectOptionID = o.ID
			}
			question.Options = append(question.Options, o)
		}
		questions = append(questions, question)
	}
	return questions
}

func keyOrNew(k uuid.UUID) uuid.UUID {
	if k == uuid.Nil {
		return domain.NewKey()
	}
	return k
}

// validateContent reports every problem of content at once.
func validateContent(content []QuestionInput) error {
	var problems []string
	seen := make(map[uuid.UUID]int)
	for i, in := range content {
		n := i + 1
		// Whitespace-only text counts as empty.
		trimmed := in
		trimmed.Text = strings.TrimSpace(in.Text)
		trimmed.Options = make([]OptionInput, len(in.Options))
		for j, o := range in.Options {
			trimmed.Options[j] = OptionInput{Key: o.Key, Text: strings.TrimSpace(o.Text)}
		}

		if err := validate.Struct(trimmed); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return err
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("question %d: %s", n, describe(fe)))
			}
		}
		if in.CorrectIndex >= len(in.Options) {
			problems = append(problems, fmt.Sprintf("question %d: exactly one correct option is required", n))
		}
		if in.Key != uuid.Nil {
			if prev, dup := seen[in.Key]; dup {
				problems = append(problems, fmt.Sprintf("question %d: same key as question %d", n, prev))
			}
			seen[in.Key] = n
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.StructField()
	switch {
	case field == "Text" && strings.Contains(fe.Namespace(), ".Options["):
		return "options must not be empty"
	case field == "Text":
		return "text is required"
	case field == "Options" && fe.Tag() == "min":
		return "requires at least 2 options"
	case field == "Options" && fe.Tag() == "max":
		return "at most 8 options"
	case field == "CorrectIndex":
		return "exactly one correct option is required"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// PublishVersion freezes a draft. Notes are required and every question must
// have at least two options and a correct option among them.
func (s *Service) PublishVersion(ctx context.Context, versionID uuid.UUID, notes string) (*domain.ExamVersion, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrPublishNotesMissing
	}

	var published *domain.ExamVersion
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		v, err := draftVersion(ctx, q, versionID)
		if err != nil {
			return err
		}
		questions, err := q.ListQuestions(ctx, v.ID)
		if err != nil {
			return err
		}
		if err := checkPublishable(questions); err != nil {
			return err
		}

		at := s.now().UTC()
		if err := q.MarkPublished(ctx, v.ID, notes, at); err != nil {
			return err
		}
		v.Status = domain.Published
		v.Notes = notes
		v.PublishedAt = &at
		v.Questions = questions
		published = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Version published",
		"exam_id", published.ExamID,
		"version", published.VersionNumber,
		"questions", len(published.Questions),
	)
	return published, nil
}

func checkPublishable(questions []domain.Question) error {
	if len(questions) == 0 {
		return &ValidationError{Problems: []string{"version has no questions"}}
	}
	var problems []string
	for i, question := range questions {
		if len(question.Options) < 2 {
			problems = append(problems, fmt.Sprintf("question %d: requires at least 2 options", i+1))
		}
		if _, ok := question.CorrectOption(); !ok {
			problems = append(problems, fmt.Sprintf("question %d: exactly one correct option is required", i+1))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
