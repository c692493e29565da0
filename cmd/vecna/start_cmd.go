package main

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui"
	"github.com/raphi011/vecna/internal/ui/prompt"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newStartCmd() *cobra.Command {
	var (
		from      string
		noInstall bool
		noSetup   bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:     "start [branch]",
		Short:   "Create a worktree for a branch",
		GroupID: GroupWorktree,
		Args:    cobra.MaximumNArgs(1),
		Long: `Create a worktree for a branch at <worktree dir>/<name>, where the
name is the branch with "/" replaced by "-".

An existing local or remote branch is checked out; otherwise a new branch
is created from --from (default: the project's main branch). After
creation the project's worktree policy runs: files are copied from the
main checkout, dependencies installed and post-create scripts executed.

Without a branch argument you are prompted, pre-filled from the clipboard.
The new worktree's path is printed to stdout.`,
		Example: `  vecna start feature/login             # new branch from main
  vecna start fix/crash --from release   # new branch from release
  vecna start feature/login --no-install # skip dependency install
  cd "$(vecna start feature/login)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			var branch string
			if len(args) == 1 {
				branch = args[0]
			} else {
				var err error
				if branch, err = askBranch(ctx); err != nil {
					return err
				}
				if branch == "" {
					l.Println("Cancelled")
					return nil
				}
			}

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			res, err := ws.engine.Create(ctx, ws.rc, branch, reconcile.CreateOptions{
				From:        from,
				SkipInstall: noInstall,
				SkipSetup:   noSetup,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return out.JSON(res)
			}
			printCreated(l, res)
			out.Println(res.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start point for a new branch (default: main branch)")
	cmd.Flags().BoolVar(&noInstall, "no-install", false, "Skip dependency installation")
	cmd.Flags().BoolVar(&noSetup, "no-setup", false, "Skip all post-create provisioning")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// askBranch prompts for a branch name, pre-filled from the clipboard.
func askBranch(ctx context.Context) (string, error) {
	if !ui.Interactive() {
		return "", errors.New("branch name required")
	}

	initial, err := clipboard.ReadAll()
	if err != nil {
		log.FromContext(ctx).Debug("clipboard unavailable", "error", err)
	}
	initial = strings.TrimSpace(initial)
	if strings.ContainsAny(initial, " \n\t") {
		initial = ""
	}

	res, err := prompt.TextInput("Branch name:", "feature/my-change", initial)
	if err != nil {
		return "", err
	}
	if res.Cancelled {
		return "", nil
	}
	return res.Value, nil
}

func printCreated(l *log.Logger, res *reconcile.Created) {
	how := "existing branch"
	if res.NewBranch {
		how = "new branch from " + res.From
	}
	l.Printf("%s Created worktree %s (%s)\n", styles.SuccessStyle.Render(styles.CheckMark), styles.Bold.Render(res.Name), how)

	if res.Setup == nil {
		return
	}
	if len(res.Setup.Copied) > 0 {
		l.Printf("  copied %s\n", strings.Join(res.Setup.Copied, ", "))
	}
	if res.Setup.Installer != "" {
		l.Printf("  installed dependencies with %s\n", res.Setup.Installer)
	}
	for _, s := range res.Setup.Scripts {
		l.Printf("  ran %s\n", s)
	}
}
