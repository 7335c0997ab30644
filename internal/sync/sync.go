// Package sync reconciles exam bank sources with the store. Every *.csv file
// of a source maps onto the exam named after the file and is imported into
// that exam's draft whenever its content changes.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/quizzer/internal/csvio"
	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/exam"
	"github.com/conorfennell/quizzer/internal/gitsource"
	"github.com/conorfennell/quizzer/internal/knol"
	"github.com/conorfennell/quizzer/internal/storage"
)

// ErrSourceExists is returned when adding a path that is already registered.
var ErrSourceExists = errors.New("source already exists")

// Syncer runs source reconciliation.
type Syncer struct {
	db       *storage.DB
	exams    *exam.Service
	reposDir string
	progress io.Writer
	now      func() time.Time
}

// New returns a Syncer that clones git sources under reposDir.
// Git progress is written to progress when it is non-nil.
func New(db *storage.DB, exams *exam.Service, reposDir string, progress io.Writer) *Syncer {
	return &Syncer{db: db, exams: exams, reposDir: reposDir, progress: progress, now: time.Now}
}

// AddSource registers a local directory or git URL.
func (s *Syncer) AddSource(ctx context.Context, path string) (*storage.Source, error) {
	sourceType := storage.SourceGit
	if !gitsource.IsRemote(path) {
		sourceType = storage.SourceLocal
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrSourceExists)
	}
	id, err := s.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// Result summarizes the reconciliation of one source.
type Result struct {
	Source    storage.Source
	Imported  int
	Unchanged int
	Errors    []error
}

// RunSync iterates over all sources and reconciles them. A failing source is
// reported in its Result and does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) ([]Result, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with 'quizzer source add <path/or/url.git>'")
		return nil, nil
	}

	results := make([]Result, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)
		results = append(results, s.syncSource(ctx, source))
	}
	slog.Info("Sync process complete.")
	return results, nil
}

func (s *Syncer) syncSource(ctx context.Context, source storage.Source) Result {
	res := Result{Source: source}
	root := source.Path

	if source.Type == storage.SourceGit {
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("determining local path for %s: %w", source.Path, err))
			return res
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath, s.progress); err != nil {
			res.Errors = append(res.Errors, err)
			return res
		}
		root = localRepoPath
	}

	s.reconcile(ctx, root, &res)

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID, s.now()); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}
	slog.Info("reconciliation complete",
		"path", root,
		"imported", res.Imported,
		"unchanged", res.Unchanged,
		"errors", len(res.Errors),
	)
	return res
}

func (s *Syncer) reconcile(ctx context.Context, root string, res *Result) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		changed, err := s.syncFile(ctx, res.Source.ID, path, rel)
		switch {
		case err != nil:
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", rel, err))
		case changed:
			res.Imported++
		default:
			res.Unchanged++
		}
		return nil
	})
	if walkErr != nil {
		slog.Error("Error walking directory", "path", root, "error", walkErr)
		res.Errors = append(res.Errors, walkErr)
	}
}

// syncFile imports one file when its content differs from the last sync.
func (s *Syncer) syncFile(ctx context.Context, sourceID int64, path, rel string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	hash := knol.ContentHash(data)

	record, err := s.db.FindSourceFile(ctx, sourceID, rel)
	if err != nil {
		return false, err
	}
	if record != nil && record.ContentHash == hash {
		slog.Debug("File unchanged, skipping", "file", rel)
		return false, nil
	}

	items, err := csvio.Parse(bytes.NewReader(data))
	if err != nil {
		return false, err
	}

	e, err := s.examFor(ctx, record, rel)
	if err != nil {
		return false, err
	}

	draft, err := s.exams.ImportDraft(ctx, e.ID, items)
	if err != nil {
		return false, err
	}
	slog.Info("File imported into draft", "file", rel, "exam", e.Name, "version", draft.VersionNumber, "questions", len(items))

	return true, s.db.UpsertSourceFile(ctx, &storage.SourceFile{
		SourceID:    sourceID,
		RelPath:     rel,
		ContentHash: hash,
		ExamID:      e.ID,
		SyncedAt:    s.now(),
	})
}

// examFor returns the exam a file was synced into before, falling back to the
// exam named after the file and creating it when there is none.
func (s *Syncer) examFor(ctx context.Context, record *storage.SourceFile, rel string) (*domain.Exam, error) {
	if record != nil {
		e, err := s.exams.Get(ctx, record.ExamID)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, exam.ErrExamNotFound) {
			return nil, err
		}
	}
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	e, err := s.exams.FindByName(ctx, name)
	if errors.Is(err, exam.ErrExamNotFound) {
		return s.exams.CreateExam(ctx, name, "Imported from "+rel)
	}
	return e, err
}

// RemoveSource unregisters a source. Exams it created are kept.
func (s *Syncer) RemoveSource(ctx context.Context, path string) error {
	if !gitsource.IsRemote(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	src, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %s not found", path)
	}
	if err := s.db.DeleteSource(ctx, src.ID); err != nil {
		return err
	}
	slog.Info("Source removed", "id", src.ID, "path", src.Path)
	return nil
}

// Sources lists the registered sources.
func (s *Syncer) Sources(ctx context.Context) ([]storage.Source, error) {
	return s.db.GetAllSources(ctx)
}
