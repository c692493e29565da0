package reconcile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/vecna/internal/git"
)

// maxSuggestions bounds the names offered by NotFoundError.
const maxSuggestions = 3

// Find returns the index of the worktree matching query by name, branch,
// path or directory name. Exact name and branch matches win over path
// matches. When nothing matches, the error is a *NotFoundError carrying
// fuzzy suggestions.
func Find(wts []git.Worktree, query string) (int, error) {
	for i, wt := range wts {
		if nameOf(wt) == query || (wt.Branch != "" && wt.Branch == query) {
			return i, nil
		}
	}

	if filepath.IsAbs(query) {
		target := canonical(query)
		for i, wt := range wts {
			if canonical(wt.Path) == target {
				return i, nil
			}
		}
	}
	for i, wt := range wts {
		if filepath.Base(wt.Path) == query {
			return i, nil
		}
	}

	names := make([]string, len(wts))
	for i, wt := range wts {
		names[i] = nameOf(wt)
	}
	var suggestions []string
	for _, m := range fuzzy.Find(query, names) {
		suggestions = append(suggestions, m.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return -1, &NotFoundError{Query: query, Suggestions: suggestions}
}

// Current returns the index of the worktree marked current, or -1.
func Current(wts []git.Worktree) int {
	for i, wt := range wts {
		if wt.IsCurrent {
			return i
		}
	}
	return -1
}

// Resolve lists the registry and returns the worktree matching query.
// An empty query selects the current worktree.
func (e *Engine) Resolve(ctx context.Context, rc Context, query string) (git.Worktree, error) {
	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return git.Worktree{}, err
	}

	if query == "" {
		i := Current(wts)
		if i < 0 {
			return git.Worktree{}, fmt.Errorf("%s is not inside a worktree of %s", rc.Cwd, e.git.Dir())
		}
		return wts[i], nil
	}

	i, err := Find(wts, query)
	if err != nil {
		return git.Worktree{}, err
	}
	return wts[i], nil
}

// Touch records that the worktree called name was just accessed.
// Missing project setup or metadata is not an error.
func (e *Engine) Touch(name string) error {
	err := e.store.Touch(name, e.now())
	if err != nil && isConfigNotFound(err) {
		return nil
	}
	return err
}
