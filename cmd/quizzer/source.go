package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage directories and Git repositories of exam CSV files",
	}
	cmd.AddCommand(newSourceAddCmd(), newSourceListCmd(), newSourceRemoveCmd(), newSourceSyncCmd())
	return cmd
}

func newSourceAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH|URL",
		Short: "Add a local directory or Git URL as a source",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			src, err := a.syncer.AddSource(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %s\n", src.Type, src.Path)
			return nil
		}),
	}
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			sources, err := a.syncer.Sources(ctx)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources. Add one with 'quizzer source add PATH'.")
				return nil
			}
			t := newTable("TYPE", "PATH", "LAST SCANNED")
			for _, s := range sources {
				t.Row(s.Type, s.Path, formatTime(s.LastScanned))
			}
			render(cmd.OutOrStdout(), t)
			return nil
		}),
	}
}

func newSourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove PATH|URL",
		Short: "Remove a source. Imported exams are kept",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := a.syncer.RemoveSource(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %s\n", args[0])
			return nil
		}),
	}
}

func newSourceSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import changed CSV files of every source into exam drafts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			results, err := a.syncer.RunSync(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(w, "No sources to sync.")
				return nil
			}
			failed := 0
			for _, r := range results {
				status := okStyle.Render("ok")
				if len(r.Errors) > 0 {
					status = badStyle.Render(fmt.Sprintf("%d errors", len(r.Errors)))
					failed++
				}
				renderf(w, "%s %s: %d imported, %d unchanged", status, r.Source.Path, r.Imported, r.Unchanged)
				for _, e := range r.Errors {
					render(w, dimStyle.Render("  "+e.Error()))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources had errors", failed, len(results))
			}
			return nil
		}),
	}
}
