package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
)

// CleanReport lists drift between git's registry, metadata and disk.
type CleanReport struct {
	// Orphaned are registered worktrees whose directory is gone.
	Orphaned []git.Worktree `json:"orphaned"`
	// Invalid are registered directories that are no longer worktrees.
	Invalid []git.Worktree `json:"invalid"`
	// StaleMetadata names metadata entries without a registered worktree.
	StaleMetadata []string `json:"staleMetadata"`
	// Unregistered are checkouts in the base directory git does not know.
	// They are reported, never deleted.
	Unregistered []string `json:"unregistered"`

	DryRun    bool      `json:"dryRun"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Cleaned   bool      `json:"cleaned,omitempty"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Issues counts what Clean would fix or report.
func (r *CleanReport) Issues() int {
	return len(r.Orphaned) + len(r.Invalid) + len(r.StaleMetadata) + len(r.Unregistered)
}

// fixable reports whether executing would change anything.
func (r *CleanReport) fixable() bool {
	return len(r.Orphaned)+len(r.Invalid)+len(r.StaleMetadata) > 0
}

// CleanOptions tunes Clean.
type CleanOptions struct {
	DryRun bool
	Force  bool
}

// PlanClean scans for drift without changing anything.
func (e *Engine) PlanClean(ctx context.Context, rc Context) (*CleanReport, error) {
	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return nil, err
	}
	cfg := e.projectOrDefault(ctx)

	rep := &CleanReport{
		Orphaned:      []git.Worktree{},
		Invalid:       []git.Worktree{},
		StaleMetadata: []string{},
		Unregistered:  []string{},
	}
	for _, wt := range wts {
		if wt.IsMain || wt.Bare {
			continue
		}
		switch {
		case wt.Prunable || !pathExists(wt.Path):
			rep.Orphaned = append(rep.Orphaned, wt)
		case !pathExists(filepath.Join(wt.Path, ".git")):
			rep.Invalid = append(rep.Invalid, wt)
		}
	}

	live := livePaths(wts)
	for _, o := range rep.Orphaned {
		delete(live, o.Path)
		delete(live, canonical(o.Path))
	}
	for name, m := range cfg.WorktreeState {
		if !live[m.Path] && !live[canonical(m.Path)] {
			rep.StaleMetadata = append(rep.StaleMetadata, name)
		}
	}
	slices.Sort(rep.StaleMetadata)

	unregistered, err := unregisteredDirs(e.baseDir(cfg), livePaths(wts))
	if err != nil {
		log.FromContext(ctx).Warn("scan %s: %v", e.baseDir(cfg), err)
	}
	rep.Unregistered = unregistered

	return rep, nil
}

// Clean scans for drift and, unless opts.DryRun, fixes it once confirm
// approves (or opts.Force is set): orphaned entries are pruned from git's
// registry, invalid ones are force-removed and stale metadata is dropped.
func (e *Engine) Clean(ctx context.Context, rc Context, opts CleanOptions, confirm func(*CleanReport) bool) (*CleanReport, error) {
	rep, err := e.PlanClean(ctx, rc)
	if err != nil {
		return nil, err
	}
	rep.DryRun = opts.DryRun
	if !rep.fixable() || opts.DryRun {
		return rep, nil
	}
	if !opts.Force && (confirm == nil || !confirm(rep)) {
		rep.Cancelled = true
		return rep, nil
	}

	if len(rep.Orphaned) > 0 {
		if err := e.git.PruneWorktrees(ctx); err != nil {
			rep.Failures = append(rep.Failures, Failure{Target: "git worktree prune", Err: err})
		}
	}
	for _, wt := range rep.Invalid {
		if err := e.git.RemoveWorktree(ctx, wt.Path, true); err != nil {
			rep.Failures = append(rep.Failures, Failure{Target: wt.Path, Err: err})
		}
	}

	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return rep, fmt.Errorf("list worktrees after clean: %w", err)
	}
	e.pruneMetadata(ctx, livePaths(wts))
	rep.Cleaned = true
	return rep, nil
}

// unregisteredDirs returns directories in baseDir that look like git
// checkouts but are not in live.
func unregisteredDirs(baseDir string, live map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return []string{}, err
	}

	dirs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p := filepath.Join(baseDir, entry.Name())
		if live[p] || live[canonical(p)] {
			continue
		}
		if pathExists(filepath.Join(p, ".git")) {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}
