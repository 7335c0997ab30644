package exam

import (
	"context"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

// Summary is one row of the exam list.
type Summary struct {
	Exam            domain.Exam
	LatestPublished int // 0 when nothing is published
	HasDraft        bool
}

// Detail is an exam with its version history and editable draft.
type Detail struct {
	Exam     domain.Exam
	Versions []domain.ExamVersion
	Draft    *domain.ExamVersion // questions loaded, nil when there is no draft
}

// List returns the non-deleted exams ordered by name, or every exam when includeDeleted is set.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]Summary, error) {
	exams, err := s.db.ListExams(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	versions, err := s.db.ListVersions(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}

	byExam := make(map[uuid.UUID][]domain.ExamVersion)
	for _, v := range versions {
		byExam[v.ExamID] = append(byExam[v.ExamID], v)
	}

	summaries := make([]Summary, 0, len(exams))
	for _, e := range exams {
		sum := Summary{Exam: e}
		for _, v := range byExam[e.ID] {
			switch v.Status {
			case domain.Published:
				sum.LatestPublished = max(sum.LatestPublished, v.VersionNumber)
			case domain.Draft:
				sum.HasDraft = true
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Detail returns a non-deleted exam with its versions and draft content.
func (s *Service) Detail(ctx context.Context, examID uuid.UUID) (*Detail, error) {
	e, err := activeExam(ctx, s.db.Queries, examID)
	if err != nil {
		return nil, err
	}
	versions, err := s.db.ListVersions(ctx, examID)
	if err != nil {
		return nil, err
	}
	draft, err := s.db.FindDraft(ctx, examID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		if draft.Questions, err = s.db.ListQuestions(ctx, draft.ID); err != nil {
			return nil, err
		}
	}
	return &Detail{Exam: *e, Versions: versions, Draft: draft}, nil
}

// Version returns any version with its questions loaded.
func (s *Service) Version(ctx context.Context, versionID uuid.UUID) (*domain.ExamVersion, error) {
	v, err := s.db.FindVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVersionNotFound
	}
	if v.Questions, err = s.db.ListQuestions(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// LatestPublished returns the published version with the highest number,
// without its questions. It fails with ErrNoPublishedVersion when there is none.
func (s *Service) LatestPublished(ctx context.Context, examID uuid.UUID) (*domain.ExamVersion, error) {
	if _, err := activeExam(ctx, s.db.Queries, examID); err != nil {
		return nil, err
	}
	v, err := s.db.FindLatestPublished(ctx, examID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoPublishedVersion
	}
	return v, nil
}

// FindByName returns the oldest non-deleted exam called name.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.Exam, error) {
	e, err := s.db.FindExamByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if e == nil || e.IsDeleted {
		return nil, ErrExamNotFound
	}
	return e, nil
}

// Get returns a non-deleted exam.
func (s *Service) Get(ctx context.Context, examID uuid.UUID) (*domain.Exam, error) {
	return activeExam(ctx, s.db.Queries, examID)
}
