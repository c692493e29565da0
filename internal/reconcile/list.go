package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
)

// Worktree is a registry entry enriched with commit, sync and remote state.
type Worktree struct {
	git.Worktree
	Name                  string            `json:"name"`
	LastCommit            git.Commit        `json:"lastCommit"`
	SyncStatus            git.SyncStatus    `json:"syncStatus"`
	RemoteExists          bool              `json:"remoteExists"`
	HasUncommittedChanges bool              `json:"hasUncommittedChanges"`
	Metadata              *project.Metadata `json:"metadata,omitempty"`
}

// Warning is a per-worktree query that failed during enrichment.
type Warning struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// ListOptions tunes List.
type ListOptions struct {
	// SkipFetch disables the throttled background fetch.
	SkipFetch bool
}

// List returns every worktree of the project, enriched. Enrichment
// failures never abort the listing: the affected fields keep safe
// defaults (RemoteExists stays true) and a Warning is returned.
func (e *Engine) List(ctx context.Context, rc Context, opts ListOptions) ([]Worktree, []Warning, error) {
	if !opts.SkipFetch {
		e.MaybeFetch(ctx)
	}

	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return nil, nil, err
	}
	cfg := e.projectOrDefault(ctx)

	results := make([]Worktree, len(wts))
	warnings := make([][]Warning, len(wts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.Concurrency)

	for i, wt := range wts {
		g.Go(func() error {
			results[i], warnings[i] = e.enrich(gctx, wt, cfg)
			return nil // never fail: problems become warnings
		})
	}
	_ = g.Wait()

	var all []Warning
	for _, ws := range warnings {
		all = append(all, ws...)
	}

	l := log.FromContext(ctx)
	for _, w := range all {
		l.Debug("enrichment degraded", "path", w.Path, "error", w.Err)
	}
	return results, all, nil
}

// Info returns the enriched worktree matching query; an empty query
// selects the current worktree.
func (e *Engine) Info(ctx context.Context, rc Context, query string) (*Worktree, []Warning, error) {
	wt, err := e.Resolve(ctx, rc, query)
	if err != nil {
		return nil, nil, err
	}
	res, warnings := e.enrich(ctx, wt, e.projectOrDefault(ctx))
	return &res, warnings, nil
}

// enrich runs the per-worktree queries. Each one degrades independently.
func (e *Engine) enrich(ctx context.Context, wt git.Worktree, cfg *project.Config) (Worktree, []Warning) {
	res := Worktree{
		Worktree:     wt,
		Name:         nameOf(wt),
		RemoteExists: true,
	}
	if m, ok := cfg.WorktreeState[res.Name]; ok && canonical(m.Path) == canonical(wt.Path) {
		res.Metadata = &m
	}

	if wt.Prunable || wt.Bare {
		if wt.Prunable {
			return res, []Warning{{Path: wt.Path, Err: fmt.Errorf("worktree directory is missing (run \"vecna clean\")")}}
		}
		return res, nil
	}

	var warnings []Warning
	warn := func(what string, err error) {
		warnings = append(warnings, Warning{Path: wt.Path, Err: fmt.Errorf("%s: %w", what, err)})
	}

	if c, err := e.git.LastCommit(ctx, wt.Path); err != nil {
		warn("last commit", err)
	} else {
		res.LastCommit = c
	}

	if dirty, err := e.git.HasUncommittedChanges(ctx, wt.Path); err != nil {
		warn("status", err)
	} else {
		res.HasUncommittedChanges = dirty
	}

	if wt.Branch != "" {
		if cfg.MainBranch != "" && wt.Branch != cfg.MainBranch {
			if s, err := e.git.AheadBehind(ctx, wt.Branch, cfg.MainBranch); err != nil {
				warn("ahead/behind", err)
			} else {
				res.SyncStatus = s
			}
		}

		if exists, err := e.git.RemoteBranchExists(ctx, wt.Branch); err != nil {
			warn("remote branch", err)
		} else {
			res.RemoteExists = exists
		}
	}

	return res, warnings
}
