package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui/static"
)

func newListCmd() *cobra.Command {
	var (
		jsonOut bool
		noFetch bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List worktrees with status",
		Aliases: []string{"ls"},
		GroupID: GroupWorktree,
		Args:    cobra.NoArgs,
		Long: `List the project's worktrees with their last commit, commits
ahead/behind the main branch, uncommitted changes and whether the branch
exists on the remote. The current worktree is marked with "*".

A background "git fetch" runs at most once per fetch interval.`,
		Example: `  vecna list
  vecna list --json | jq '.[].path'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			wts, warnings, err := ws.engine.List(ctx, ws.rc, reconcile.ListOptions{SkipFetch: noFetch})
			if err != nil {
				return err
			}
			for _, w := range warnings {
				l.Warn("%s", w)
			}

			if jsonOut {
				return out.JSON(wts)
			}
			out.Print(static.RenderTable(static.WorktreeHeaders, static.WorktreeRows(wts, time.Now())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Skip the background fetch")
	return cmd
}
