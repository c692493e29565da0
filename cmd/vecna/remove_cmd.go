package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newRemoveCmd() *cobra.Command {
	var (
		force       bool
		forceBranch bool
		keepBranch  bool
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:     "remove [name]",
		Short:   "Remove a worktree and its branch",
		Aliases: []string{"rm"},
		GroupID: GroupWorktree,
		Args:    cobra.MaximumNArgs(1),
		Long: `Remove a worktree, delete its branch and drop its metadata.

Without a name, pick the worktree interactively. The main checkout and the
worktree you are standing in are never removed. A worktree with
uncommitted changes is removed only after confirmation or with --force.
The branch is deleted with "git branch -d"; for an unmerged branch you
are asked whether to force-delete it, unless --force-branch is given. A
worktree whose directory is already gone is pruned.`,
		Example: `  vecna remove                           # pick interactively
  vecna remove feature-login
  vecna remove feature/login -f          # discard uncommitted changes
  vecna remove feature-login --keep-branch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			target := ""
			if len(args) == 1 {
				target = args[0]
			} else {
				wt, err := pickWorktree(ctx, ws, nil, "Remove worktree", func(wt reconcile.Worktree) bool {
					return wt.IsMain || wt.IsCurrent
				})
				if err != nil || wt == nil {
					return err
				}
				target = wt.Name
			}

			ask := func(q string) bool { return confirm(ctx, q) }
			if jsonOut {
				ask = nil
			}
			res, err := removeWorktree(ctx, ws.engine, ws.rc, target, reconcile.RemoveOptions{
				Force:       force,
				ForceBranch: forceBranch,
				KeepBranch:  keepBranch,
			}, ask)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := out.JSON(res); err != nil {
					return err
				}
			} else {
				check := styles.SuccessStyle.Render(styles.CheckMark)
				if res.AlreadyAbsent {
					l.Printf("%s Pruned %s (directory was already gone)\n", check, res.Name)
				} else {
					l.Printf("%s Removed worktree %s\n", check, res.Path)
				}
				if res.BranchDeleted {
					l.Printf("%s Deleted branch %s\n", check, res.Branch)
				}
			}

			if res.BranchErr != nil {
				var bde *reconcile.BranchDeleteError
				if errors.As(res.BranchErr, &bde) && bde.Unmerged {
					l.Warn("%v (or re-run with --force-branch)", bde)
					return nil
				}
				return res.BranchErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even with uncommitted changes")
	cmd.Flags().BoolVar(&forceBranch, "force-branch", false, "Delete the branch even if not fully merged")
	cmd.Flags().BoolVar(&keepBranch, "keep-branch", false, "Keep the branch")
	cmd.MarkFlagsMutuallyExclusive("force-branch", "keep-branch")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// remover is the part of the engine the remove command drives.
type remover interface {
	Remove(ctx context.Context, rc reconcile.Context, target string, opts reconcile.RemoveOptions) (*reconcile.Removed, error)
	DeleteBranch(ctx context.Context, branch string, force bool) error
}

// removeWorktree removes target, asking before discarding uncommitted
// changes and before force-deleting an unmerged branch. A nil ask never
// escalates.
func removeWorktree(ctx context.Context, eng remover, rc reconcile.Context, target string, opts reconcile.RemoveOptions, ask func(question string) bool) (*reconcile.Removed, error) {
	res, err := eng.Remove(ctx, rc, target, opts)

	var dirty *reconcile.UncommittedChangesError
	if errors.As(err, &dirty) && ask != nil {
		if !ask(fmt.Sprintf("%s has uncommitted changes. Remove anyway?", dirty.Path)) {
			return nil, err
		}
		opts.Force = true
		res, err = eng.Remove(ctx, rc, target, opts)
	}
	if err != nil {
		return nil, err
	}

	var bde *reconcile.BranchDeleteError
	if errors.As(res.BranchErr, &bde) && bde.Unmerged && ask != nil {
		if ask(fmt.Sprintf("Branch %s is not fully merged. Delete it anyway?", bde.Branch)) {
			if err := eng.DeleteBranch(ctx, bde.Branch, true); err != nil {
				res.BranchErr = err
			} else {
				res.BranchErr = nil
				res.BranchDeleted = true
			}
		}
	}
	return res, nil
}
