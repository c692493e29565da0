package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/ui"
	"github.com/raphi011/vecna/internal/ui/prompt"
	"github.com/raphi011/vecna/internal/ui/styles"
)

func newDefaultCmd() *cobra.Command {
	var (
		set     string
		pick    bool
		clearIt bool
	)

	cmd := &cobra.Command{
		Use:     "default",
		Short:   "Show or change the default project",
		GroupID: GroupProject,
		Args:    cobra.NoArgs,
		Long: `Show, set or clear the default project. Outside any git repository,
vecna commands operate on the default project.

Projects are registered by "vecna setup".`,
		Example: `  vecna default            # show
  vecna default --set api  # set by name
  vecna default --pick     # choose interactively
  vecna default --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)
			check := styles.SuccessStyle.Render(styles.CheckMark)

			reg, err := project.LoadRegistry()
			if err != nil {
				return err
			}

			switch {
			case clearIt:
				if !reg.ClearDefault() {
					l.Println("No default project is set.")
					return nil
				}
				if err := reg.Save(); err != nil {
					return err
				}
				l.Printf("%s Default project cleared\n", check)
				return nil

			case pick:
				if len(reg.Projects) == 0 {
					return errors.New(`no projects registered: run "vecna setup" in a repository`)
				}
				if !ui.Interactive() {
					return errors.New("--pick needs a terminal; use --set <name>")
				}
				options := make([]prompt.Option, len(reg.Projects))
				for i, p := range reg.Projects {
					options[i] = prompt.Option{Label: p.Name, Description: p.Path}
				}
				res, err := prompt.Select("Default project", options, 0)
				if err != nil {
					return err
				}
				if res.Cancelled {
					l.Println("Cancelled")
					return nil
				}
				set = reg.Projects[res.Index].Name
			}

			if set != "" {
				if err := reg.SetDefault(set); err != nil {
					return err
				}
				if err := reg.Save(); err != nil {
					return err
				}
				l.Printf("%s Default project set to %s\n", check, set)
				return nil
			}

			if reg.DefaultProject == nil {
				l.Println(`No default project set. Use "vecna default --set <name>".`)
				return nil
			}
			out.Printf("%s\t%s\n", reg.DefaultProject.Name, reg.DefaultProject.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Set the default project by name")
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "Choose the default project interactively")
	cmd.Flags().BoolVar(&clearIt, "clear", false, "Clear the default project")
	cmd.MarkFlagsMutuallyExclusive("set", "pick", "clear")
	return cmd
}
