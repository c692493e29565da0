package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui/static"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newInfoCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "info [name]",
		Short:   "Show details of a worktree",
		GroupID: GroupWorktree,
		Args:    cobra.MaximumNArgs(1),
		Long: `Show details of one worktree: path, branch, last commit, sync status
and stored metadata. Without a name the current worktree is shown.

The name may be a worktree name, branch, path or directory name.`,
		Example: `  vecna info
  vecna info feature-login --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			wt, warnings, err := ws.engine.Info(ctx, ws.rc, query)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				l.Warn("%s", w)
			}

			if jsonOut {
				return out.JSON(wt)
			}
			printInfo(out.Writer(), wt, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printInfo(w io.Writer, wt *reconcile.Worktree, now time.Time) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%-14s %s\n", styles.MutedStyle.Render(label+":"), value)
	}

	title := wt.Name
	if wt.IsCurrent {
		title += " " + styles.AccentStyle.Render("(current)")
	}
	fmt.Fprintln(w, styles.Bold.Render(title))

	branch := wt.Branch
	if branch == "" {
		branch = "(detached at " + wt.Head + ")"
	}
	field("Branch", branch)
	field("Path", wt.Path)
	field("Status", static.Status(*wt))
	if wt.LastCommit.Hash != "" {
		field("Last commit", fmt.Sprintf("%s %s (%s)", wt.LastCommit.Hash, wt.LastCommit.Message, static.Age(wt.LastCommit.Time, now)))
	}
	if m := wt.Metadata; m != nil {
		if !m.CreatedAt.IsZero() {
			field("Created", m.CreatedAt.Local().Format(time.DateTime))
		}
		if !m.LastAccessedAt.IsZero() {
			field("Last accessed", static.Age(m.LastAccessedAt, now))
		}
	}
}
