package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/csvio"
	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/knol"
	"github.com/conorfennell/quizzer/internal/storage"
)

// ImportDraftFromCSV replaces the exam's draft content with the questions of a
// CSV file, creating the draft first when needed. The file is rejected as a
// whole if any row is invalid.
func (s *Service) ImportDraftFromCSV(ctx context.Context, examID uuid.UUID, path string) (*domain.ExamVersion, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("csv path must not be empty")
	}
	items, err := csvio.ParseFile(path)
	if err != nil {
		var rowsErr *csvio.RowsError
		if errors.As(err, &rowsErr) {
			return nil, rowsValidationError(rowsErr)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.ImportDraft(ctx, examID, items)
}

// ImportDraft replaces the exam's draft content with items.
//
// Questions whose normalized text matches a question of the draft or the
// latest published version keep that question's key, and likewise for options
// within a matched question, so re-importing a bank keeps its review history.
func (s *Service) ImportDraft(ctx context.Context, examID uuid.UUID, items []csvio.Item) (*domain.ExamVersion, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Problems: []string{"file has no questions"}}
	}

	var draft *domain.ExamVersion
	var reused int
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		var err error
		draft, err = s.ensureDraft(ctx, q, examID)
		if err != nil {
			return err
		}
		known, err := knownQuestions(ctx, q, examID, draft.ID)
		if err != nil {
			return err
		}

		content, n := contentFromItems(items, known)
		reused = n
		if err := validateContent(content); err != nil {
			return err
		}
		return replaceDraftContent(ctx, q, draft.ID, content)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Draft imported from CSV",
		"exam_id", examID,
		"version", draft.VersionNumber,
		"questions", len(items),
		"reused_keys", reused,
	)
	return draft, nil
}

// knownQuestions indexes the questions of the draft and of the latest
// published version by the hash of their text. Draft entries win.
func knownQuestions(ctx context.Context, q *storage.Queries, examID, draftID uuid.UUID) (map[string]domain.Question, error) {
	known := make(map[string]domain.Question)
	add := func(versionID uuid.UUID) error {
		questions, err := q.ListQuestions(ctx, versionID)
		if err != nil {
			return err
		}
		for _, question := range questions {
			h := knol.QuestionHash(question)
			if _, ok := known[h]; !ok {
				known[h] = question
			}
		}
		return nil
	}

	if err := add(draftID); err != nil {
		return nil, err
	}
	published, err := q.FindLatestPublished(ctx, examID)
	if err != nil {
		return nil, err
	}
	if published != nil {
		if err := add(published.ID); err != nil {
			return nil, err
		}
	}
	return known, nil
}

// contentFromItems converts CSV items into draft content, reusing keys from
// known. It returns the number of questions that kept an existing key.
func contentFromItems(items []csvio.Item, known map[string]domain.Question) ([]QuestionInput, int) {
	content := make([]QuestionInput, 0, len(items))
	used := make(map[uuid.UUID]bool)
	reused := 0
	for _, it := range items {
		in := QuestionInput{
			Text:         it.Question,
			Explanation:  it.Explanation,
			Difficulty:   it.Difficulty,
			CorrectIndex: it.CorrectIndex,
		}

		match, ok := known[knol.Hash(it.Question)]
		if ok && !used[match.QuestionKey] {
			in.Key = match.QuestionKey
			used[match.QuestionKey] = true
			reused++
		} else {
			ok = false
		}

		optionKeys := make(map[string]uuid.UUID)
		if ok {
			for _, o := range match.Options {
				optionKeys[knol.Hash(o.Text)] = o.OptionKey
			}
		}
		for _, text := range it.Options {
			opt := OptionInput{Text: text}
			h := knol.Hash(text)
			if k, found := optionKeys[h]; found {
				opt.Key = k
				delete(optionKeys, h)
			}
			in.Options = append(in.Options, opt)
		}
		content = append(content, in)
	}
	return content, reused
}

// ExportVersionCSV writes the questions of any version to path.
func (s *Service) ExportVersionCSV(ctx context.Context, versionID uuid.UUID, path string) error {
	v, err := s.db.FindVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v == nil {
		return ErrVersionNotFound
	}
	questions, err := s.db.ListQuestions(ctx, v.ID)
	if err != nil {
		return err
	}

	items := make([]csvio.Item, 0, len(questions))
	for _, question := range questions {
		item := csvio.Item{
			Question:     question.Text,
			Explanation:  question.Explanation,
			Difficulty:   question.Difficulty,
			CorrectIndex: -1,
		}
		for i, o := range question.Options {
			item.Options = append(item.Options, o.Text)
			if o.ID == question.CorrectOptionID {
				item.CorrectIndex = i
			}
		}
		items = append(items, item)
	}

	if err := csvio.WriteFile(path, items); err != nil {
		var rowsErr *csvio.RowsError
		if errors.As(err, &rowsErr) {
			return rowsValidationError(rowsErr)
		}
		return err
	}
	slog.Info("Version exported", "version_id", v.ID, "version", v.VersionNumber, "path", path, "questions", len(items))
	return nil
}

func rowsValidationError(err *csvio.RowsError) *ValidationError {
	problems := make([]string, len(err.Rows))
	for i, r := range err.Rows {
		problems[i] = r.Error()
	}
	return &ValidationError{Problems: problems}
}
