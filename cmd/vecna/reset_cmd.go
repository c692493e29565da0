package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/storage"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Delete all global vecna configuration",
		GroupID: GroupProject,
		Args:    cobra.NoArgs,
		Long: `Delete the global configuration directory (~/.config/vecna): the
project registry, the default project, the fetch cache and config.toml.

Project files (.vecna.json) and worktrees are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			dir, err := storage.ConfigDir()
			if err != nil {
				return err
			}
			if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
				l.Println("No global configuration found.")
				return nil
			}

			if !force {
				l.Printf("This removes every registered project, the default project and %s\n", dir)
				if !confirm(ctx, "Reset global configuration?") {
					l.Println("Cancelled")
					return nil
				}
			}

			if err := project.Reset(dir); err != nil {
				return err
			}
			l.Printf("%s Global configuration reset. Run \"vecna setup\" in your projects to register them again.\n",
				styles.SuccessStyle.Render(styles.CheckMark))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reset without confirmation")
	return cmd
}
