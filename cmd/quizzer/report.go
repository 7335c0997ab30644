package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/quizzer/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Review due and weak questions",
	}
	cmd.AddCommand(newReportDueCmd(), newReportWeakCmd(), newReportDashboardCmd())
	return cmd
}

// filterFor scopes a report to the exam named by the optional first argument.
func (a *app) filterFor(ctx context.Context, args []string) (report.Filter, error) {
	if len(args) == 0 {
		return report.Filter{}, nil
	}
	e, err := a.resolveExam(ctx, args[0], false)
	if err != nil {
		return report.Filter{}, err
	}
	return report.Filter{ExamID: e.ID}, nil
}

func newReportDueCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "due [EXAM]",
		Short: "List questions due for review",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			at := time.Now()
			if asOf != "" {
				var err error
				if at, err = endOfDay(asOf, time.Local); err != nil {
					return err
				}
			}
			f, err := a.filterFor(ctx, args)
			if err != nil {
				return err
			}
			due, err := a.reports.Due(ctx, f, at)
			if err != nil {
				return err
			}
			if len(due) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
				return nil
			}
			printQuestionReports(cmd.OutOrStdout(), due)
			return nil
		}),
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Report questions due by the end of this date (YYYY-MM-DD)")
	return cmd
}

// endOfDay returns the last instant of the YYYY-MM-DD date in loc.
func endOfDay(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date %q: %w", date, err)
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func newReportWeakCmd() *cobra.Command {
	opts := report.DefaultWeakOptions()
	cmd := &cobra.Command{
		Use:   "weak [EXAM]",
		Short: "List questions answered poorly",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if opts.MaxAccuracy < 0 || opts.MaxAccuracy > 1 {
				return fmt.Errorf("--max-accuracy must be between 0 and 1, got %v", opts.MaxAccuracy)
			}
			f, err := a.filterFor(ctx, args)
			if err != nil {
				return err
			}
			weak, err := a.reports.Weak(ctx, f, opts)
			if err != nil {
				return err
			}
			if len(weak) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No weak questions.")
				return nil
			}
			printQuestionReports(cmd.OutOrStdout(), weak)
			return nil
		}),
	}
	cmd.Flags().IntVar(&opts.MinAttempts, "min-attempts", opts.MinAttempts, "Minimum answers before a question can be weak")
	cmd.Flags().Float64Var(&opts.MaxAccuracy, "max-accuracy", opts.MaxAccuracy, "Highest accuracy (0-1) still counted as weak")
	return cmd
}

func printQuestionReports(w io.Writer, reports []report.QuestionReport) {
	t := newTable("QUESTION", "ANSWERS", "CORRECT", "ACCURACY", "DUE", "LAST SEEN")
	for _, r := range reports {
		t.Row(
			r.Text,
			strconv.Itoa(r.TotalAttempts),
			strconv.Itoa(r.CorrectCount),
			formatPercent(r.Accuracy*100),
			formatTime(r.DueAt),
			formatTime(r.LastSeenAt),
		)
	}
	render(w, t)
}

func newReportDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize attempts per exam",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := a.reports.Dashboard(ctx)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exams yet.")
				return nil
			}
			t := newTable("EXAM", "ATTEMPTS", "AVERAGE", "LAST ATTEMPT")
			for _, r := range rows {
				avg := "-"
				if r.TotalAttempts > 0 {
					avg = formatPercent(r.AverageScore)
				}
				t.Row(r.Name, strconv.Itoa(r.TotalAttempts), avg, formatTime(r.LastAttemptAt))
			}
			render(cmd.OutOrStdout(), t)
			return nil
		}),
	}
}
