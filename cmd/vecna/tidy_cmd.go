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

func newTidyCmd() *cobra.Command {
	var (
		dryRun  bool
		force   bool
		keep    string
		noSync  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:     "tidy",
		Short:   "Delete branches and worktrees whose remote branch is gone",
		GroupID: GroupWorktree,
		Args:    cobra.NoArgs,
		Long: `Check out and pull the main branch, fetch with prune, then delete every
local branch whose remote-tracking branch no longer exists, together with
its worktree.

Uncommitted changes in those worktrees are discarded (git reset --hard);
the plan marks them before you confirm. main, master, develop, staging
and the configured protected_branches are never touched, nor is the
branch of the main checkout or of the worktree you are standing in.`,
		Example: `  vecna tidy --dry-run           # show the plan only
  vecna tidy                     # confirm, then execute
  vecna tidy -f --keep 'release/*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			res, err := ws.engine.Tidy(ctx, ws.rc, reconcile.TidyOptions{
				DryRun:   dryRun,
				Force:    force,
				Keep:     keep,
				SkipSync: noSync,
			}, func(plan *reconcile.TidyPlan) bool {
				if !jsonOut {
					printTidyPlan(l.Writer(), plan)
				}
				return confirm(ctx, "Proceed?")
			})
			if err != nil {
				return err
			}

			for _, f := range res.Failures {
				l.Warn("%s", f)
			}
			if jsonOut {
				return out.JSON(res)
			}

			switch {
			case res.Plan.Empty():
				printSkipped(l.Writer(), res.Plan)
				l.Println("Nothing to tidy.")
			case res.DryRun:
				printTidyPlan(out.Writer(), res.Plan)
				l.Println("Dry run, nothing changed.")
			case res.Cancelled:
				l.Println("Cancelled")
			default:
				check := styles.SuccessStyle.Render(styles.CheckMark)
				l.Printf("%s Removed %d worktree(s), deleted %d branch(es)\n", check, len(res.RemovedWorktrees), len(res.DeletedBranches))
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("tidy finished with %d failure(s)", len(res.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the plan without changing anything")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Execute without confirmation")
	cmd.Flags().StringVar(&keep, "keep", "", "Glob of branches to keep (e.g. 'release/*')")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Skip checkout, pull and fetch of the main branch")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printTidyPlan(w io.Writer, plan *reconcile.TidyPlan) {
	if len(plan.WorktreesToRemove) > 0 {
		fmt.Fprintln(w, styles.Bold.Render("Worktrees to remove:"))
		for _, r := range plan.WorktreesToRemove {
			note := ""
			if r.WillReset() {
				note = "  " + styles.WarningStyle.Render(styles.ResetMarker+" uncommitted changes will be discarded")
			}
			fmt.Fprintf(w, "  %s  %s%s\n", r.Name, styles.MutedStyle.Render(r.Path), note)
		}
	}
	if len(plan.BranchesToDelete) > 0 {
		fmt.Fprintln(w, styles.Bold.Render("Branches to delete:"))
		for _, b := range plan.BranchesToDelete {
			fmt.Fprintf(w, "  %s\n", b)
		}
	}
	printSkipped(w, plan)
}

func printSkipped(w io.Writer, plan *reconcile.TidyPlan) {
	if len(plan.Skipped) == 0 {
		return
	}
	fmt.Fprintln(w, styles.Bold.Render("Skipped:"))
	for _, s := range plan.Skipped {
		fmt.Fprintf(w, "  %s  %s\n", s.Branch, styles.MutedStyle.Render(s.Reason))
	}
}
