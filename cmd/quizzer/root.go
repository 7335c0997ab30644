package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conorfennell/quizzer/internal/attempt"
	"github.com/conorfennell/quizzer/internal/config"
	"github.com/conorfennell/quizzer/internal/domain"
	"github.com/conorfennell/quizzer/internal/exam"
	"github.com/conorfennell/quizzer/internal/report"
	"github.com/conorfennell/quizzer/internal/storage"
	"github.com/conorfennell/quizzer/internal/study"
	"github.com/conorfennell/quizzer/internal/sync"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quizzer",
		Short:        "Local multiple-choice exam trainer with spaced repetition",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Path to a YAML config file (default "+config.DefaultFile+" if present)")
	root.PersistentFlags().String("db", "", "Path to the SQLite database file (overrides QUIZZER_DB)")
	root.PersistentFlags().String("repos-dir", "", "Directory for cloned git sources")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(newExamCmd())
	root.AddCommand(newAttemptCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newSourceCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// app wires the services of one command run.
type app struct {
	cfg      *config.Config
	db       *storage.DB
	exams    *exam.Service
	attempts *attempt.Service
	reports  *report.Service
	syncer   *sync.Syncer
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Log.Level)

	updater, err := study.NewUpdater(cfg.Study)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	slog.Debug("Database opened", "path", cfg.DB)

	exams := exam.NewService(db)
	return &app{
		cfg:      cfg,
		db:       db,
		exams:    exams,
		attempts: attempt.NewService(db, updater),
		reports:  report.NewService(db),
		syncer:   sync.New(db, exams, cfg.ReposDir, cmd.ErrOrStderr()),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp adapts a handler that needs the services into a cobra RunE.
func withApp(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return fn(ctx, a, cmd, args)
	}
}

func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

// resolveExam accepts an exam ID or name.
func (a *app) resolveExam(ctx context.Context, ref string, includeDeleted bool) (*domain.Exam, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if includeDeleted {
			list, err := a.exams.List(ctx, true)
			if err != nil {
				return nil, err
			}
			for _, s := range list {
				if s.Exam.ID == id {
					return &s.Exam, nil
				}
			}
			return nil, exam.ErrExamNotFound
		}
		return a.exams.Get(ctx, id)
	}

	list, err := a.exams.List(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.Exam.Name == ref {
			return &s.Exam, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", ref, exam.ErrExamNotFound)
}
