package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conorfennell/quizzer/internal/domain"
)

func newExamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Create, version and publish exams",
	}
	cmd.AddCommand(
		newExamCreateCmd(),
		newExamListCmd(),
		newExamShowCmd(),
		newExamDeleteCmd(),
		newExamRestoreCmd(),
		newExamDraftCmd(),
		newExamPublishCmd(),
		newExamImportCmd(),
		newExamExportCmd(),
	)
	return cmd
}

func newExamCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.exams.CreateExam(ctx, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created exam %s (%s)\n", e.Name, e.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&description, "description", "", "Exam description")
	return cmd
}

func newExamListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exams",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			list, err := a.exams.List(ctx, all)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exams yet. Create one with 'quizzer exam create NAME'.")
				return nil
			}
			t := newTable("ID", "NAME", "PUBLISHED", "DRAFT", "DELETED")
			for _, s := range list {
				published := "-"
				if s.LatestPublished > 0 {
					published = "v" + strconv.Itoa(s.LatestPublished)
				}
				t.Row(s.Exam.ID.String(), s.Exam.Name, published, yesNo(s.HasDraft), yesNo(s.Exam.IsDeleted))
			}
			render(cmd.OutOrStdout(), t)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include deleted exams")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newExamShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show EXAM",
		Short: "Show an exam's versions and draft content",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			d, err := a.exams.Detail(ctx, e.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			render(w, titleStyle.Render(d.Exam.Name))
			if d.Exam.Description != "" {
				render(w, dimStyle.Render(d.Exam.Description))
			}
			t := newTable("VERSION", "STATUS", "PUBLISHED", "NOTES", "ID")
			for _, v := range d.Versions {
				t.Row("v"+strconv.Itoa(v.VersionNumber), v.Status.String(), formatTime(v.PublishedAt), v.Notes, v.ID.String())
			}
			render(w, t)

			if d.Draft == nil {
				fmt.Fprintln(w, "No draft.")
				return nil
			}
			renderf(w, "Draft v%d, %d questions:", d.Draft.VersionNumber, len(d.Draft.Questions))
			printQuestions(w, d.Draft.Questions)
			return nil
		}),
	}
}

func printQuestions(w io.Writer, questions []domain.Question) {
	for i, q := range questions {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, q.Text, dimStyle.Render("["+q.QuestionKey.String()+"]"))
		for j, o := range q.Options {
			marker := " "
			if o.ID == q.CorrectOptionID {
				marker = okStyle.Render("*")
			}
			fmt.Fprintf(w, "   %s %c) %s\n", marker, 'A'+j, o.Text)
		}
	}
}

func newExamDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete EXAM",
		Short: "Hide an exam, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			if err := a.exams.SoftDelete(ctx, e.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted exam %s\n", e.Name)
			return nil
		}),
	}
}

func newExamRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore EXAM",
		Short: "Restore a deleted exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], true)
			if err != nil {
				return err
			}
			if err := a.exams.Restore(ctx, e.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored exam %s\n", e.Name)
			return nil
		}),
	}
}

func newExamDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draft EXAM",
		Short: "Create the exam's draft from its latest published version",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			v, err := a.exams.CreateDraftVersion(ctx, e.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Draft v%d of %s (%s)\n", v.VersionNumber, e.Name, v.ID)
			return nil
		}),
	}
}

func newExamPublishCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "publish EXAM",
		Short: "Publish the exam's draft",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			d, err := a.exams.Detail(ctx, e.ID)
			if err != nil {
				return err
			}
			if d.Draft == nil {
				return fmt.Errorf("exam %s has no draft to publish", e.Name)
			}
			v, err := a.exams.PublishVersion(ctx, d.Draft.ID, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s v%d with %d questions\n", e.Name, v.VersionNumber, len(v.Questions))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "Release notes (required)")
	return cmd
}

func newExamImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import EXAM FILE.csv",
		Short: "Replace the exam's draft with the questions of a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			v, err := a.exams.ImportDraftFromCSV(ctx, e.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into draft v%d of %s\n", args[1], v.VersionNumber, e.Name)
			return nil
		}),
	}
}

func newExamExportCmd() *cobra.Command {
	var versionRef string
	cmd := &cobra.Command{
		Use:   "export EXAM FILE.csv",
		Short: "Write the latest published version (or --version) to a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			e, err := a.resolveExam(ctx, args[0], false)
			if err != nil {
				return err
			}
			versionID, err := a.pickVersion(ctx, e, versionRef)
			if err != nil {
				return err
			}
			if err := a.exams.ExportVersionCSV(ctx, versionID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", e.Name, args[1])
			return nil
		}),
	}
	cmd.Flags().StringVar(&versionRef, "version", "", "Version number, version ID or 'draft'")
	return cmd
}

// pickVersion resolves a version reference of e. An empty ref means the latest published version.
func (a *app) pickVersion(ctx context.Context, e *domain.Exam, ref string) (uuid.UUID, error) {
	d, err := a.exams.Detail(ctx, e.ID)
	if err != nil {
		return uuid.Nil, err
	}
	switch {
	case ref == "":
		v, err := a.exams.LatestPublished(ctx, e.ID)
		if err != nil {
			return uuid.Nil, err
		}
		return v.ID, nil
	case strings.EqualFold(ref, "draft"):
		if d.Draft == nil {
			return uuid.Nil, fmt.Errorf("exam %s has no draft", e.Name)
		}
		return d.Draft.ID, nil
	}
	n, numErr := strconv.Atoi(strings.TrimPrefix(ref, "v"))
	id, idErr := uuid.Parse(ref)
	for _, v := range d.Versions {
		if (numErr == nil && v.VersionNumber == n) || (idErr == nil && v.ID == id) {
			return v.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("exam %s has no version %q", e.Name, ref)
}
