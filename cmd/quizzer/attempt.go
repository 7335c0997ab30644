package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conorfennell/quizzer/internal/attempt"
	"github.com/conorfennell/quizzer/internal/csvio"
	"github.com/conorfennell/quizzer/internal/domain"
)

func newAttemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Take exams and review past attempts",
	}
	cmd.AddCommand(newAttemptTakeCmd(), newAttemptHistoryCmd(), newAttemptShowCmd())
	return cmd
}

// errQuit stops an interactive attempt early. Answers given so far are still scored.
var errQuit = errors.New("quit")

func newAttemptTakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take EXAM",
		Short: "Answer the latest published version of an exam",
		Long: `Answer each question with its letter or number. Append '?' to flag an
answer you are unsure of, press enter to skip, or type 'q' to finish early.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			session, err := a.attempts.Start(ctx, e.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			renderf(w, "%s v%d, %d questions", titleStyle.Render(session.Exam.Name), session.Version.VersionNumber, len(session.Version.Questions))

			for i, q := range session.Version.Questions {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := askQuestion(ctx, a, w, in, session.Attempt.ID, i+1, q)
				if errors.Is(err, errQuit) {
					break
				}
				if err != nil {
					return err
				}
			}

			finished, err := a.attempts.Finish(ctx, session.Attempt.ID)
			if err != nil {
				return err
			}
			printScore(w, finished)
			return nil
		}),
	}
}

func askQuestion(ctx context.Context, a *app, w io.Writer, in *bufio.Scanner, attemptID uuid.UUID, n int, q domain.Question) error {
	fmt.Fprintf(w, "\n%d. %s\n", n, q.Text)
	for j, o := range q.Options {
		fmt.Fprintf(w, "   %c) %s\n", 'A'+j, o.Text)
	}

	started := time.Now()
	for {
		fmt.Fprint(w, "> ")
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return err
			}
			return errQuit
		}
		raw := strings.TrimSpace(in.Text())
		switch strings.ToLower(raw) {
		case "":
			return nil
		case "q", "quit":
			return errQuit
		}

		doubt := strings.HasSuffix(raw, "?")
		idx, ok := csvio.ParseAnswer(strings.TrimSuffix(raw, "?"), len(q.Options))
		if !ok {
			fmt.Fprintf(w, "Answer with a letter A-%c or a number 1-%d.\n", 'A'+len(q.Options)-1, len(q.Options))
			continue
		}

		saved, err := a.attempts.SaveAnswer(ctx, attempt.Answer{
			AttemptID:    attemptID,
			QuestionID:   q.ID,
			OptionID:     q.Options[idx].ID,
			FlaggedDoubt: doubt,
			SecondsSpent: int(time.Since(started).Seconds()),
		})
		if err != nil {
			return err
		}
		if saved.IsCorrect {
			render(w, okStyle.Render("Correct"))
		} else {
			correct, _ := q.CorrectOption()
			render(w, badStyle.Render("Wrong")+dimStyle.Render(" answer: "+correct.Text))
		}
		if q.Explanation != "" {
			render(w, dimStyle.Render(q.Explanation))
		}
		return nil
	}
}

func printScore(w io.Writer, a *domain.Attempt) {
	style := okStyle
	if a.ScorePercent < 50 {
		style = badStyle
	}
	renderf(w, "\nScore %s (%d/%d) in %s",
		style.Render(formatPercent(a.ScorePercent)),
		a.CorrectCount, a.TotalCount,
		time.Duration(a.DurationSeconds)*time.Second,
	)
}

func newAttemptHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [EXAM]",
		Short: "List past attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			examID := uuid.Nil
			if len(args) == 1 {
				e, err := a.resolveExam(ctx, args[0], false)
				if err != nil {
					return err
				}
				examID = e.ID
			}
			items, err := a.attempts.History(ctx, examID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts yet.")
				return nil
			}

			t := newTable("ID", "EXAM", "VERSION", "STARTED", "FINISHED", "SCORE")
			for _, it := range items {
				score := "-"
				if it.Attempt.Finished() {
					score = fmt.Sprintf("%s (%d/%d)", formatPercent(it.Attempt.ScorePercent), it.Attempt.CorrectCount, it.Attempt.TotalCount)
				}
				t.Row(
					it.Attempt.ID.String(),
					it.ExamName,
					"v"+strconv.Itoa(it.VersionNumber),
					formatTime(&it.Attempt.StartedAt),
					formatTime(it.Attempt.FinishedAt),
					score,
				)
			}
			render(cmd.OutOrStdout(), t)
			return nil
		}),
	}
}

func newAttemptShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ATTEMPT_ID",
		Short: "Show the answers of one attempt",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid attempt ID %q: %w", args[0], err)
			}
			d, err := a.attempts.Detail(ctx, id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			renderf(w, "%s v%d, started %s", titleStyle.Render(d.ExamName), d.VersionNumber, formatTime(&d.Attempt.StartedAt))
			if d.Attempt.Finished() {
				printScore(w, &d.Attempt)
			} else {
				render(w, dimStyle.Render("Not finished"))
			}

			t := newTable("#", "QUESTION", "ANSWER", "CORRECT", "SECONDS", "DOUBT")
			for _, ans := range d.Answers {
				result := okStyle.Render("yes")
				if !ans.IsCorrect {
					result = badStyle.Render("no") + " " + ans.CorrectOptionText
				}
				doubt := ""
				if ans.FlaggedDoubt {
					doubt = "?"
				}
				t.Row(
					strconv.Itoa(ans.OrderIndex+1),
					ans.QuestionText,
					ans.SelectedOptionText,
					result,
					strconv.Itoa(ans.SecondsSpent),
					doubt,
				)
			}
			render(w, t)
			return nil
		}),
	}
}
