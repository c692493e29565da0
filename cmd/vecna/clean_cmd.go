package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newCleanCmd() *cobra.Command {
	var (
		dryRun  bool
		force   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:     "clean",
		Short:   "Repair drift between git, metadata and disk",
		GroupID: GroupWorktree,
		Args:    cobra.NoArgs,
		Long: `Find and fix worktree drift:

  orphaned      registered worktrees whose directory is gone (pruned)
  invalid       registered directories that are no longer worktrees (removed)
  stale         metadata entries without a registered worktree (dropped)
  unregistered  checkouts in the worktree directory git does not know
                (reported only, never deleted)`,
		Example: `  vecna clean --dry-run
  vecna clean -f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			rep, err := ws.engine.Clean(ctx, ws.rc, reconcile.CleanOptions{DryRun: dryRun, Force: force}, func(r *reconcile.CleanReport) bool {
				if !jsonOut {
					printCleanReport(l.Writer(), r)
				}
				return confirm(ctx, "Fix these issues?")
			})
			if err != nil {
				return err
			}

			for _, f := range rep.Failures {
				l.Warn("%s", f)
			}
			if jsonOut {
				return out.JSON(rep)
			}

			switch {
			case rep.Issues() == 0:
				l.Println("Everything is consistent.")
			case rep.DryRun || !rep.Cleaned && !rep.Cancelled:
				printCleanReport(out.Writer(), rep)
			case rep.Cancelled:
				l.Println("Cancelled")
			default:
				l.Printf("%s Cleaned\n", styles.SuccessStyle.Render(styles.CheckMark))
			}
			if len(rep.Failures) > 0 {
				return fmt.Errorf("clean finished with %d failure(s)", len(rep.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report without changing anything")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Fix without confirmation")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printCleanReport(w io.Writer, r *reconcile.CleanReport) {
	for _, wt := range r.Orphaned {
		fmt.Fprintf(w, "  %-13s %s\n", "orphaned", wt.Path)
	}
	for _, wt := range r.Invalid {
		fmt.Fprintf(w, "  %-13s %s\n", "invalid", wt.Path)
	}
	for _, name := range r.StaleMetadata {
		fmt.Fprintf(w, "  %-13s %s\n", "stale", name)
	}
	for _, dir := range r.Unregistered {
		fmt.Fprintf(w, "  %-13s %s %s\n", "unregistered", dir, styles.MutedStyle.Render("(left in place)"))
	}
}
