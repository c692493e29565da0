// Package worktree derives where vecna places worktrees on disk.
package worktree

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultBaseDir is used when neither the project nor the user config
// names a base directory.
const DefaultBaseDir = ".worktrees"

// Name flattens a branch into a single path segment:
// "feature/login" becomes "feature-login".
func Name(branch string) string {
	name := strings.TrimSpace(branch)
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, `\`, "-")
	return name
}

// BaseDir resolves a base directory setting against the main checkout.
// Supports:
//   - ".worktrees" or "./trees" = nested inside repo
//   - "../{repo}-trees" = sibling to repo
//   - "~/trees/{repo}" = home-relative
//   - "/absolute/{repo}" = absolute path
//
// {repo} is replaced with the main checkout's directory name.
func BaseDir(repoPath, dir string) string {
	if dir == "" {
		dir = DefaultBaseDir
	}
	dir = strings.ReplaceAll(dir, "{repo}", filepath.Base(repoPath))

	switch {
	case strings.HasPrefix(dir, "../"):
		return filepath.Join(filepath.Dir(repoPath), dir[3:])

	case dir == "~" || strings.HasPrefix(dir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			// keep the ~ so error messages show what the user wrote
			return dir
		}
		return filepath.Join(home, strings.TrimPrefix(dir[1:], "/"))

	case filepath.IsAbs(dir):
		return filepath.Clean(dir)

	default:
		return filepath.Join(repoPath, strings.TrimPrefix(dir, "./"))
	}
}

// Path returns the deterministic location of branch's worktree.
func Path(repoPath, dir, branch string) string {
	return filepath.Join(BaseDir(repoPath, dir), Name(branch))
}
