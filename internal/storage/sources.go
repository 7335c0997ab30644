package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source represents an exam bank, either a local directory or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned *time.Time
}

// SourceFile records the last synced state of one CSV file of a source.
type SourceFile struct {
	SourceID    int64
	RelPath     string
	ContentHash string
	ExamID      uuid.UUID
	SyncedAt    time.Time
}

// InsertSource inserts a new source path into the database and returns its ID.
func (s *Queries) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

func scanSource(row interface{ Scan(...any) error }) (*Source, error) {
	var src Source
	var lastScanned sql.NullTime
	if err := row.Scan(&src.ID, &src.Path, &src.Type, &lastScanned); err != nil {
		return nil, err
	}
	src.LastScanned = timePtr(lastScanned)
	return &src, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (s *Queries) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	src, err := scanSource(s.q.QueryRowContext(ctx, `
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return src, nil
}

// GetAllSources retrieves all stored sources from the database.
func (s *Queries) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and its file records. Imported exams stay.
func (s *Queries) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to delete source ID %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (s *Queries) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// FindSourceFile returns the sync record of a file, or nil if it was never synced.
func (s *Queries) FindSourceFile(ctx context.Context, sourceID int64, relPath string) (*SourceFile, error) {
	var f SourceFile
	err := s.q.QueryRowContext(ctx, `
		SELECT source_id, rel_path, content_hash, exam_id, synced_at
		FROM source_files WHERE source_id = ? AND rel_path = ?
	`, sourceID, relPath).Scan(&f.SourceID, &f.RelPath, &f.ContentHash, &f.ExamID, &f.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source file %s: %w", relPath, err)
	}
	f.SyncedAt = f.SyncedAt.UTC()
	return &f, nil
}

// UpsertSourceFile stores the sync record of a file.
func (s *Queries) UpsertSourceFile(ctx context.Context, f *SourceFile) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO source_files (source_id, rel_path, content_hash, exam_id, synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source_id, rel_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			exam_id = excluded.exam_id,
			synced_at = excluded.synced_at
	`, f.SourceID, f.RelPath, f.ContentHash, f.ExamID, f.SyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save source file %s: %w", f.RelPath, err)
	}
	return nil
}
