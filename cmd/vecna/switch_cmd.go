package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/cmd"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/output"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/setup"
	"github.com/raphi011/vecna/internal/ui"
	"github.com/raphi011/vecna/internal/ui/prompt"
	"github.com/raphi011/vecna/internal/ui/static"
)

// shellModeEnv makes switch print only the cd line, for shell functions
// that eval the output.
const shellModeEnv = "VECNA_SHELL_MODE"

// fallbackEditors are tried in order when no editor is configured.
var fallbackEditors = []string{"code", "cursor", "subl", "vim"}

func newSwitchCmd() *cobra.Command {
	var (
		jsonOut    bool
		openEditor bool
	)

	c := &cobra.Command{
		Use:     "switch [name]",
		Short:   "Pick a worktree and print how to go there",
		Aliases: []string{"sw"},
		GroupID: GroupWorktree,
		Args:    cobra.MaximumNArgs(1),
		Long: `Select a worktree by name, branch or path, or interactively with a
fuzzy picker, and print a "cd" command for it. The command is also copied
to the clipboard. The worktree's last-accessed time is updated.

When stdout is not a terminal, or VECNA_SHELL_MODE=true, only the cd line
is printed so a shell function can eval it:

  vs() { eval "$(VECNA_SHELL_MODE=true command vecna switch "$@")"; }`,
		Example: `  vecna switch                  # fuzzy picker
  vecna switch feature-login    # by name
  vecna switch feature/login -e # and open in editor
  vecna switch --json           # list candidates as JSON`,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}

			if jsonOut && len(args) == 0 {
				wts, warnings, err := ws.engine.List(ctx, ws.rc, reconcile.ListOptions{})
				if err != nil {
					return err
				}
				for _, w := range warnings {
					l.Warn("%s", w)
				}
				return out.JSON(wts)
			}

			wt, err := pickWorktree(ctx, ws, args, "Switch to worktree", nil)
			if err != nil || wt == nil {
				return err
			}
			if wt.Name != "" {
				if err := ws.engine.Touch(wt.Name); err != nil {
					l.Warn("record access: %v", err)
				}
			}

			if jsonOut {
				return out.JSON(wt)
			}

			line := "cd " + setup.ShellQuote(wt.Path)
			if os.Getenv(shellModeEnv) == "true" || !ui.StdoutIsTerminal() {
				out.Println(line)
			} else {
				l.Printf("To navigate, run:\n")
				out.Printf("  %s\n", line)
				if err := clipboard.WriteAll(line); err == nil {
					l.Printf("(copied to clipboard)\n")
				} else {
					l.Debug("clipboard unavailable", "error", err)
				}
			}

			if openEditor {
				return launchEditor(ctx, ws, wt.Path)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	c.Flags().BoolVarP(&openEditor, "editor", "e", false, "Open the worktree in an editor")
	return c
}

// pickWorktree resolves args[0], or shows the picker titled title. skip,
// when set, hides worktrees from the picker. A nil worktree with a nil
// error means the user cancelled.
func pickWorktree(ctx context.Context, ws *workspace, args []string, title string, skip func(reconcile.Worktree) bool) (*reconcile.Worktree, error) {
	if len(args) == 1 {
		wt, _, err := ws.engine.Info(ctx, ws.rc, args[0])
		return wt, err
	}
	if !ui.Interactive() {
		return nil, errors.New("worktree name required when not running in a terminal")
	}

	all, warnings, err := ws.engine.List(ctx, ws.rc, reconcile.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.FromContext(ctx).Debug("list warning", "warning", w)
	}

	var wts []reconcile.Worktree
	for _, wt := range all {
		if skip == nil || !skip(wt) {
			wts = append(wts, wt)
		}
	}
	if len(wts) == 0 {
		return nil, errors.New("no worktrees to choose from")
	}

	options := make([]prompt.Option, len(wts))
	initial := 0
	for i, wt := range wts {
		options[i] = prompt.Option{
			Label:       wt.Name,
			Description: strings.TrimSpace(wt.Branch + "  " + static.Status(wt)),
		}
		if wt.IsCurrent {
			initial = i
		}
	}

	res, err := prompt.Select(title, options, initial)
	if err != nil {
		return nil, err
	}
	if res.Cancelled {
		log.FromContext(ctx).Println("Cancelled")
		return nil, nil
	}
	return &wts[res.Index], nil
}

// editorCommand picks the editor: project policy, then user config, then
// $VISUAL and $EDITOR, then the first known editor on PATH.
func editorCommand(policy, configured string, lookPath func(string) (string, error)) []string {
	for _, e := range []string{policy, configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if fields := strings.Fields(e); len(fields) > 0 {
			return fields
		}
	}
	for _, e := range fallbackEditors {
		if _, err := lookPath(e); err == nil {
			return []string{e}
		}
	}
	return nil
}

func launchEditor(ctx context.Context, ws *workspace, path string) error {
	var policy string
	if cfg, err := ws.store.Load(); err == nil {
		policy = cfg.WorktreePolicy.EditorPreference
	}

	editor := editorCommand(policy, ws.cfg.Editor, exec.LookPath)
	if editor == nil {
		return fmt.Errorf("no editor found: set \"editor\" in the config or $EDITOR (tried %s)", strings.Join(fallbackEditors, ", "))
	}
	log.FromContext(ctx).Printf("Opening %s in %s...\n", path, editor[0])
	return cmd.RunInteractive(ctx, path, editor[0], append(editor[1:], path)...)
}
