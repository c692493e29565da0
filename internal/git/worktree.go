package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Worktree is one entry of the git worktree registry.
type Worktree struct {
	Path      string `json:"path"`
	Branch    string `json:"branch"`
	Head      string `json:"head"`
	IsMain    bool   `json:"isMain"`
	IsCurrent bool   `json:"isCurrent"`
	Detached  bool   `json:"detached,omitempty"`
	Bare      bool   `json:"bare,omitempty"`
	Locked    bool   `json:"locked,omitempty"`
	Prunable  bool   `json:"prunable,omitempty"`
}

// ListWorktrees returns the repository's worktree registry.
// IsCurrent is derived from cwd: the entry whose resolved path is the
// longest prefix of the resolved cwd. git's own "current" notion is
// ignored.
func (g *Gateway) ListWorktrees(ctx context.Context, cwd string) ([]Worktree, error) {
	output, err := outputGit(ctx, g.dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}

	worktrees := parseWorktreeList(string(output))
	markCurrent(worktrees, cwd)
	return worktrees, nil
}

// AddWorktree creates a worktree at path for an existing branch.
func (g *Gateway) AddWorktree(ctx context.Context, path, branch string) error {
	return runGit(ctx, g.dir, "worktree", "add", path, branch)
}

// AddWorktreeWithNewBranch creates a worktree at path on a new branch
// started from fromRef. fromRef is required: the main checkout's HEAD is
// never an implicit starting point.
func (g *Gateway) AddWorktreeWithNewBranch(ctx context.Context, path, branch, fromRef string) error {
	if fromRef == "" {
		return fmt.Errorf("create branch %q: source ref is required", branch)
	}
	return runGit(ctx, g.dir, "worktree", "add", "-b", branch, path, fromRef)
}

// RemoveWorktree removes the worktree at path. force also removes
// worktrees with uncommitted changes.
func (g *Gateway) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	return runGit(ctx, g.dir, args...)
}

// PruneWorktrees drops registry entries whose directories are gone.
func (g *Gateway) PruneWorktrees(ctx context.Context) error {
	return runGit(ctx, g.dir, "worktree", "prune")
}

// parseWorktreeList parses "git worktree list --porcelain" output.
// The first entry is the main worktree.
func parseWorktreeList(output string) []Worktree {
	var worktrees []Worktree
	var current *Worktree

	flush := func() {
		if current != nil && current.Path != "" {
			worktrees = append(worktrees, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			current = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case current == nil:
			continue
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "detached":
			current.Detached = true
		case line == "bare":
			current.Bare = true
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.Locked = true
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			current.Prunable = true
		case line == "":
			flush()
		}
	}
	flush()

	if len(worktrees) > 0 {
		worktrees[0].IsMain = true
	}
	return worktrees
}

// markCurrent flags the worktree containing cwd. Worktrees may be nested
// (e.g. <main>/.worktrees/<name>), so the longest matching path wins.
func markCurrent(worktrees []Worktree, cwd string) {
	if cwd == "" {
		return
	}
	resolvedCwd := ResolvePath(cwd)

	best, bestLen := -1, -1
	for i := range worktrees {
		worktrees[i].IsCurrent = false
		p := ResolvePath(worktrees[i].Path)
		if isWithin(resolvedCwd, p) && len(p) > bestLen {
			best, bestLen = i, len(p)
		}
	}
	if best >= 0 {
		worktrees[best].IsCurrent = true
	}
}

// ResolvePath returns an absolute, symlink-free version of path. When path
// does not exist, the deepest existing ancestor is resolved and the rest
// is appended, so a removed worktree still compares equal to the path git
// reported while it existed.
func ResolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	var rest []string
	dir := abs
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
		dir = parent
	}
}

// isWithin reports whether path equals root or is nested under it.
func isWithin(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsMainRepository returns true if path holds a main checkout: its .git
// entry is a directory. Linked worktrees have a .git file instead.
func IsMainRepository(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsWorktree returns true if path is a linked worktree (.git is a file).
func IsWorktree(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// FindRepositoryRoot walks up from start until it finds a directory with a
// .git entry (file or directory). Returns ErrNotARepository at the
// filesystem root.
func FindRepositoryRoot(start string) (string, error) {
	dir := ResolvePath(start)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s", ErrNotARepository, start)
		}
		dir = parent
	}
}

// MainRepositoryRoot returns the main checkout for start, following a
// linked worktree's .git pointer when needed.
func MainRepositoryRoot(start string) (string, error) {
	root, err := FindRepositoryRoot(start)
	if err != nil {
		return "", err
	}
	if IsMainRepository(root) {
		return root, nil
	}
	return GetMainRepoPath(root)
}

// GetMainRepoPath extracts main repo path from .git file in worktree
func GetMainRepoPath(worktreePath string) (string, error) {
	gitFile := filepath.Join(worktreePath, ".git")
	content, err := os.ReadFile(gitFile)
	if err != nil {
		return "", fmt.Errorf("failed to read .git file: %w", err)
	}

	// Parse: "gitdir: /path/to/repo/.git/worktrees/name"
	// Only the first line matters; any additional lines are ignored
	line := strings.TrimSpace(string(content))
	if idx := strings.Index(line, "\n"); idx != -1 {
		line = strings.TrimSpace(line[:idx])
	}
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", errors.New("invalid .git file format: expected 'gitdir: <path>'")
	}

	gitdir := strings.TrimPrefix(line, "gitdir: ")
	if gitdir == "" {
		return "", errors.New("invalid .git file format: empty gitdir path")
	}

	// gitdir can be relative to the worktree
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(worktreePath, gitdir)
	}
	gitdir = filepath.Clean(gitdir)

	// gitdir is like /path/to/repo/.git/worktrees/name; we want /path/to/repo
	dir := gitdir
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find main repo path from gitdir: %s", gitdir)
		}
		if filepath.Base(dir) == ".git" {
			return parent, nil
		}
		dir = parent
	}
}
