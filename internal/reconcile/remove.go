package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
)

// RemoveOptions tunes Remove.
type RemoveOptions struct {
	// Force removes a worktree with uncommitted changes.
	Force bool
	// ForceBranch deletes the branch even when it is not fully merged.
	ForceBranch bool
	// KeepBranch leaves the branch in place.
	KeepBranch bool
}

// Removed describes a finished removal. The worktree is gone; BranchErr
// reports a failed branch deletion (a *BranchDeleteError), which never
// undoes the worktree removal.
type Removed struct {
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	Branch        string   `json:"branch"`
	AlreadyAbsent bool     `json:"alreadyAbsent,omitempty"`
	BranchDeleted bool     `json:"branchDeleted"`
	BranchErr     error    `json:"-"`
	Pruned        []string `json:"prunedMetadata,omitempty"`
}

// MarshalJSON adds BranchErr as "branchError" and "branchUnmerged".
func (r Removed) MarshalJSON() ([]byte, error) {
	type plain Removed
	out := struct {
		plain
		BranchError    string `json:"branchError,omitempty"`
		BranchUnmerged bool   `json:"branchUnmerged,omitempty"`
	}{plain: plain(r)}
	if r.BranchErr != nil {
		out.BranchError = r.BranchErr.Error()
		var bde *BranchDeleteError
		out.BranchUnmerged = errors.As(r.BranchErr, &bde) && bde.Unmerged
	}
	return json.Marshal(out)
}

// Remove deletes the worktree matching target, then its branch.
// It refuses the current worktree (ErrCurrentWorktree), the main checkout
// (ErrMainWorktree) and, without opts.Force, a worktree with uncommitted
// changes (*UncommittedChangesError). A target already gone from disk is
// pruned and treated as success.
func (e *Engine) Remove(ctx context.Context, rc Context, target string, opts RemoveOptions) (*Removed, error) {
	l := log.FromContext(ctx)

	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return nil, err
	}

	i, err := Find(wts, target)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			if res, ok := e.removeStale(target, wts); ok {
				return res, nil
			}
		}
		return nil, err
	}
	wt := wts[i]

	switch {
	case wt.IsMain:
		return nil, ErrMainWorktree
	case wt.IsCurrent:
		return nil, ErrCurrentWorktree
	}

	res := &Removed{Name: nameOf(wt), Path: wt.Path, Branch: wt.Branch}
	onDisk := pathExists(wt.Path)

	if onDisk && !opts.Force {
		dirty, err := e.git.HasUncommittedChanges(ctx, wt.Path)
		if err != nil {
			return nil, fmt.Errorf("check %s for uncommitted changes: %w", wt.Path, err)
		}
		if dirty {
			return nil, &UncommittedChangesError{Path: wt.Path}
		}
	}

	var rmErr error
	if onDisk {
		rmErr = e.git.RemoveWorktree(ctx, wt.Path, opts.Force)
	}
	if !pathExists(wt.Path) {
		res.AlreadyAbsent = !onDisk
		if err := e.git.PruneWorktrees(ctx); err != nil {
			l.Debug("prune worktrees", "error", err)
		}
	}

	after, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		if rmErr != nil {
			return nil, rmErr
		}
		return nil, err
	}
	live := livePaths(after)
	if live[wt.Path] {
		if rmErr != nil {
			return nil, rmErr
		}
		return nil, fmt.Errorf("worktree %s is still registered after removal", wt.Path)
	}

	res.Pruned = e.pruneMetadata(ctx, live)

	if wt.Branch != "" && !opts.KeepBranch {
		if err := e.DeleteBranch(ctx, wt.Branch, opts.ForceBranch); err != nil {
			res.BranchErr = err
		} else {
			res.BranchDeleted = true
		}
	}

	return res, nil
}

// DeleteBranch deletes a local branch, forcing when force is set. A
// failure is returned as a *BranchDeleteError.
func (e *Engine) DeleteBranch(ctx context.Context, branch string, force bool) error {
	if err := e.git.DeleteBranch(ctx, branch, force); err != nil {
		return &BranchDeleteError{
			Branch:   branch,
			Unmerged: git.IsUnmergedBranchError(err),
			Err:      err,
		}
	}
	return nil
}

// removeStale handles a target git no longer knows about but the
// metadata still does: the entry is dropped and the removal counts as
// done.
func (e *Engine) removeStale(target string, wts []git.Worktree) (*Removed, bool) {
	cfg, err := e.store.Load()
	if err != nil {
		return nil, false
	}
	m, ok := cfg.WorktreeState[target]
	if !ok {
		return nil, false
	}
	if live := livePaths(wts); live[m.Path] || live[canonical(m.Path)] || pathExists(m.Path) {
		return nil, false
	}
	if err := e.store.DeleteWorktree(target); err != nil {
		return nil, false
	}
	return &Removed{Name: target, Path: m.Path, Branch: m.Branch, AlreadyAbsent: true, Pruned: []string{target}}, true
}

// pruneMetadata drops metadata for worktrees missing from live.
// Failures are logged only.
func (e *Engine) pruneMetadata(ctx context.Context, live map[string]bool) []string {
	pruned, err := e.store.Prune(live)
	if err != nil && !isConfigNotFound(err) {
		log.FromContext(ctx).Warn("metadata not updated: %v", err)
	}
	return pruned
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
