package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/quizzer/internal/domain"
)

// InsertExam inserts a new exam.
func (s *Queries) InsertExam(ctx context.Context, e *domain.Exam) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO exams (id, name, description, is_deleted, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Description, e.IsDeleted, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert exam %s: %w", e.ID, err)
	}
	return nil
}

const examColumns = `id, name, description, is_deleted, created_at`

func scanExam(row interface{ Scan(...any) error }) (*domain.Exam, error) {
	var e domain.Exam
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.IsDeleted, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// FindExam retrieves an exam by ID, deleted or not.
func (s *Queries) FindExam(ctx context.Context, id uuid.UUID) (*domain.Exam, error) {
	e, err := scanExam(s.q.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Exam not found
		}
		return nil, fmt.Errorf("failed to find exam %s: %w", id, err)
	}
	return e, nil
}

// FindExamByName retrieves the oldest exam with the given name, preferring non-deleted ones.
func (s *Queries) FindExamByName(ctx context.Context, name string) (*domain.Exam, error) {
	e, err := scanExam(s.q.QueryRowContext(ctx, `
		SELECT `+examColumns+` FROM exams WHERE name = ? ORDER BY is_deleted, created_at LIMIT 1
	`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find exam by name %q: %w", name, err)
	}
	return e, nil
}

// ListExams returns exams ordered by name.
func (s *Queries) ListExams(ctx context.Context, includeDeleted bool) ([]domain.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY name, created_at`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam row: %w", err)
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// SetExamDeleted flips the soft-delete flag.
func (s *Queries) SetExamDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	_, err := s.q.ExecContext(ctx, `UPDATE exams SET is_deleted = ? WHERE id = ?`, deleted, id)
	if err != nil {
		return fmt.Errorf("failed to update deleted flag for exam %s: %w", id, err)
	}
	return nil
}

// InsertVersion inserts a new exam version without its questions.
func (s *Queries) InsertVersion(ctx context.Context, v *domain.ExamVersion) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO exam_versions (id, exam_id, version_number, status, notes, created_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.ExamID, v.VersionNumber, int(v.Status), v.Notes, v.CreatedAt.UTC(), nullTime(v.PublishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert version %d of exam %s: %w", v.VersionNumber, v.ExamID, err)
	}
	return nil
}

const versionColumns = `id, exam_id, version_number, status, notes, created_at, published_at`

func scanVersion(row interface{ Scan(...any) error }) (*domain.ExamVersion, error) {
	var v domain.ExamVersion
	var status int
	var publishedAt sql.NullTime
	if err := row.Scan(&v.ID, &v.ExamID, &v.VersionNumber, &status, &v.Notes, &v.CreatedAt, &publishedAt); err != nil {
		return nil, err
	}
	v.Status = domain.VersionStatus(status)
	v.CreatedAt = v.CreatedAt.UTC()
	v.PublishedAt = timePtr(publishedAt)
	return &v, nil
}

func (s *Queries) findVersion(ctx context.Context, what, query string, args ...any) (*domain.ExamVersion, error) {
	v, err := scanVersion(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	return v, nil
}

// FindVersion retrieves a version by ID.
func (s *Queries) FindVersion(ctx context.Context, id uuid.UUID) (*domain.ExamVersion, error) {
	return s.findVersion(ctx, "version "+id.String(),
		`SELECT `+versionColumns+` FROM exam_versions WHERE id = ?`, id)
}

// FindDraft retrieves the newest draft of an exam.
func (s *Queries) FindDraft(ctx context.Context, examID uuid.UUID) (*domain.ExamVersion, error) {
	return s.findVersion(ctx, "draft of exam "+examID.String(), `
		SELECT `+versionColumns+` FROM exam_versions
		WHERE exam_id = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1
	`, examID, int(domain.Draft))
}

// FindLatestPublished retrieves the published version with the highest number.
func (s *Queries) FindLatestPublished(ctx context.Context, examID uuid.UUID) (*domain.ExamVersion, error) {
	return s.findVersion(ctx, "latest published version of exam "+examID.String(), `
		SELECT `+versionColumns+` FROM exam_versions
		WHERE exam_id = ? AND status = ?
		ORDER BY version_number DESC LIMIT 1
	`, examID, int(domain.Published))
}

// ListVersions returns versions ordered by exam and number. A nil examID lists all versions.
func (s *Queries) ListVersions(ctx context.Context, examID uuid.UUID) ([]domain.ExamVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM exam_versions`
	var args []any
	if examID != uuid.Nil {
		query += ` WHERE exam_id = ?`
		args = append(args, examID)
	}
	query += ` ORDER BY exam_id, version_number`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.ExamVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// MarkPublished moves a version to the published state.
func (s *Queries) MarkPublished(ctx context.Context, id uuid.UUID, notes string, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE exam_versions SET status = ?, notes = ?, published_at = ? WHERE id = ?
	`, int(domain.Published), notes, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to publish version %s: %w", id, err)
	}
	return nil
}
