package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/vecna/internal/config"
	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/storage"
	"github.com/raphi011/vecna/internal/ui/styles"
	"github.com/raphi011/vecna/internal/worktree"
)

// ignoreFiles receive the worktree directory when it lies inside the repo.
var ignoreFiles = []string{".gitignore", ".cursorignore"}

func newSetupCmd() *cobra.Command {
	var (
		name       string
		mainBranch string
	)

	cmd := &cobra.Command{
		Use:     "setup",
		Short:   "Set up vecna for the current repository",
		GroupID: GroupProject,
		Args:    cobra.NoArgs,
		Long: `Set up the repository whose main checkout you are in:

  - write the project file (.vecna.json), keeping existing policy and state
  - create the worktree directory and add it to .gitignore and .cursorignore
  - register the project in ~/.config/vecna/config.json
  - write a commented config.toml if there is none

Running setup again is safe.`,
		Example: `  vecna setup
  vecna setup --name api --main-branch develop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			cfg := settings(ctx)
			check := styles.SuccessStyle.Render(styles.CheckMark)
			dot := styles.MutedStyle.Render("·")

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			root, err := git.FindRepositoryRoot(cwd)
			if err != nil {
				return err
			}
			if !git.IsMainRepository(root) {
				return fmt.Errorf("%w: run setup from the main checkout, not a worktree", git.ErrNotMainRepository)
			}

			if name == "" {
				name = filepath.Base(root)
			}
			if mainBranch == "" {
				mainBranch = git.New(root).DefaultBranch(ctx)
			}

			store := project.NewStore(root)
			proj, err := store.Init(name, mainBranch)
			if err != nil {
				return err
			}
			l.Printf("%s Wrote %s (main branch %s)\n", check, project.FileName, proj.MainBranch)

			dir := proj.WorktreePolicy.BaseDirectory
			if dir == "" {
				dir = cfg.WorktreeDir
			}
			baseDir := worktree.BaseDir(root, dir)
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return fmt.Errorf("create worktree directory: %w", err)
			}
			l.Printf("%s Worktree directory %s\n", check, baseDir)

			if rel, err := filepath.Rel(root, baseDir); err == nil && filepath.IsLocal(rel) {
				entry := filepath.ToSlash(rel)
				for _, f := range ignoreFiles {
					added, err := appendIgnore(filepath.Join(root, f), entry)
					switch {
					case err != nil:
						l.Warn("update %s: %v", f, err)
					case added:
						l.Printf("%s Added %s to %s\n", check, entry, f)
					default:
						l.Printf("%s %s already in %s\n", dot, entry, f)
					}
				}
			}

			reg, err := project.LoadRegistry()
			if err != nil {
				return err
			}
			reg.Upsert(*proj)
			if err := reg.Save(); err != nil {
				return fmt.Errorf("register project: %w", err)
			}
			l.Printf("%s Registered project %s\n", check, proj.Name)

			if created, err := writeDefaultConfig(); err != nil {
				l.Warn("write config: %v", err)
			} else if created != "" {
				l.Printf("%s Wrote %s\n", check, created)
			}

			l.Println()
			l.Println("Create a worktree with: vecna start <branch>")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: directory name)")
	cmd.Flags().StringVar(&mainBranch, "main-branch", "", "Main branch (default: detected from the remote)")
	return cmd
}

// appendIgnore adds entry as a line of the ignore file at path unless an
// equivalent line exists. It reports whether the file changed.
func appendIgnore(path, entry string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	text := string(content)
	lines := strings.Split(text, "\n")
	trimmed := strings.TrimSuffix(entry, "/")
	if slices.ContainsFunc(lines, func(line string) bool {
		line = strings.TrimSpace(line)
		return line == trimmed || line == trimmed+"/" || line == "/"+trimmed || line == "/"+trimmed+"/"
	}) {
		return false, nil
	}

	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += entry + "\n"
	return true, storage.WriteFileAtomic(path, []byte(text), 0o644)
}

// writeDefaultConfig writes the commented default config when none exists
// and returns its path, or "" when one was already there.
func writeDefaultConfig() (string, error) {
	path, err := config.Path()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	return path, storage.WriteFileAtomic(path, []byte(config.DefaultConfig()), 0o644)
}
