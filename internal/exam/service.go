// Package exam manages exams and their versioned question sets.
//
// A draft is the only editable version of an exam. Publishing freezes it and
// the next draft starts as a copy of the latest published version, carrying
// question and option keys over so review history follows the content.
package exam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/storage"
)

// Service runs exam commands and queries against the store.
type Service struct {
	db  *storage.DB
	now func() time.Time
}

// NewService returns a Service bound to db.
func NewService(db *storage.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// CreateExam creates an empty exam with no versions.
func (s *Service) CreateExam(ctx context.Context, name, description string) (*domain.Exam, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	e := &domain.Exam{
		ID:          domain.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.db.InsertExam(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("Exam created", "id", e.ID, "name", e.Name)
	return e, nil
}

// SoftDelete hides an exam. Its versions and history are kept.
func (s *Service) SoftDelete(ctx context.Context, examID uuid.UUID) error {
	return s.setDeleted(ctx, examID, true)
}

// Restore makes a deleted exam visible again.
func (s *Service) Restore(ctx context.Context, examID uuid.UUID) error {
	return s.setDeleted(ctx, examID, false)
}

func (s *Service) setDeleted(ctx context.Context, examID uuid.UUID, deleted bool) error {
	e, err := s.db.FindExam(ctx, examID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrExamNotFound
	}
	if e.IsDeleted == deleted {
		return nil
	}
	if err := s.db.SetExamDeleted(ctx, examID, deleted); err != nil {
		return err
	}
	slog.Info("Exam deleted flag changed", "id", examID, "deleted", deleted)
	return nil
}

// activeExam loads a non-deleted exam or fails with ErrExamNotFound.
func activeExam(ctx context.Context, q *storage.Queries, examID uuid.UUID) (*domain.Exam, error) {
	e, err := q.FindExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e == nil || e.IsDeleted {
		return nil, ErrExamNotFound
	}
	return e, nil
}

// draftVersion loads a version and checks it is still editable.
func draftVersion(ctx context.Context, q *storage.Queries, versionID uuid.UUID) (*domain.ExamVersion, error) {
	v, err := q.FindVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVersionNotFound
	}
	if v.Status != domain.Draft {
		return nil, fmt.Errorf("version %d: %w", v.VersionNumber, ErrNotDraft)
	}
	return v, nil
}
