package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/config"
	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
)

// Command group IDs for organizing help output
const (
	GroupWorktree = "worktree"
	GroupProject  = "project"
)

// noGitCommands run without a git binary.
var noGitCommands = map[string]bool{
	"completion": true,
	"__complete": true,
	"help":       true,
	"version":    true,
	"default":    true,
	"reset":      true,
}

// newRootCmd builds the command tree. stderr receives diagnostics; the
// context passed to Execute carries the stdout printer.
func newRootCmd(stderr io.Writer) *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:   "vecna",
		Short: "Git worktree lifecycle manager",
		Long: `vecna creates, lists, switches and removes git worktrees at
deterministic paths, keeps per-worktree metadata in the project file
(.vecna.json) and tidies up branches whose remote is gone.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.WithLogger(cmd.Context(), log.New(stderr, verbose, quiet))

			cfg, err := config.Load()
			if err != nil {
				log.FromContext(ctx).Warn("%v", err)
			}
			cmd.SetContext(config.WithConfig(ctx, &cfg))

			if noGitCommands[cmd.Name()] {
				return nil
			}
			return git.CheckGit()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddGroup(
		&cobra.Group{ID: GroupWorktree, Title: "Worktree Commands:"},
		&cobra.Group{ID: GroupProject, Title: "Project Commands:"},
	)

	root.AddCommand(
		newStartCmd(),
		newListCmd(),
		newSwitchCmd(),
		newInfoCmd(),
		newRemoveCmd(),
		newTidyCmd(),
		newCleanCmd(),

		newSetupCmd(),
		newDefaultCmd(),
		newResetCmd(),

		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout for primary data
	ctx = output.WithPrinter(ctx, os.Stdout)

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'vecna -h' for help")
		cancel()
		os.Exit(1)
	}
}
