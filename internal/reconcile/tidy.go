package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slices"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
)

// DefaultProtectedBranches are never deleted by tidy.
var DefaultProtectedBranches = []string{"main", "master", "develop", "staging"}

// RemovalKind says how a worktree leaves during tidy.
type RemovalKind int

const (
	// CleanRemoval removes a worktree without local changes.
	CleanRemoval RemovalKind = iota
	// ResetRemoval hard-resets uncommitted changes before removal.
	ResetRemoval
)

func (k RemovalKind) String() string {
	if k == ResetRemoval {
		return "reset"
	}
	return "clean"
}

// Removal is one worktree in a tidy plan.
type Removal struct {
	Kind   RemovalKind
	Name   string
	Branch string
	Path   string
}

// WillReset reports whether uncommitted changes will be discarded.
func (r Removal) WillReset() bool { return r.Kind == ResetRemoval }

// MarshalJSON renders the removal with an explicit willReset flag.
func (r Removal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name      string `json:"name"`
		Branch    string `json:"branch"`
		Path      string `json:"path"`
		WillReset bool   `json:"willReset"`
	}{r.Name, r.Branch, r.Path, r.WillReset()})
}

// Skip is a gone branch tidy leaves alone, with the reason.
type Skip struct {
	Branch string `json:"branch"`
	Reason string `json:"reason"`
}

// TidyPlan lists everything a tidy run would change. Worktrees are
// removed before branches are deleted.
type TidyPlan struct {
	MainBranch        string    `json:"mainBranch"`
	WorktreesToRemove []Removal `json:"worktreesToRemove"`
	BranchesToDelete  []string  `json:"branchesToDelete"`
	Skipped           []Skip    `json:"skipped,omitempty"`
}

// Empty reports whether the plan changes nothing.
func (p *TidyPlan) Empty() bool {
	return len(p.WorktreesToRemove) == 0 && len(p.BranchesToDelete) == 0
}

// TidyOptions tunes Tidy.
type TidyOptions struct {
	// DryRun returns the plan without changing anything.
	DryRun bool
	// Force executes without asking for confirmation.
	Force bool
	// Keep is a glob (path.Match syntax, e.g. "release/*") of branches to keep.
	Keep string
	// SkipSync skips the checkout/pull/fetch of the main branch.
	SkipSync bool
}

// Failure is one tidy or clean step that did not complete.
type Failure struct {
	Target string
	Err    error
}

func (f Failure) String() string { return fmt.Sprintf("%s: %v", f.Target, f.Err) }

// MarshalJSON renders the error as its message.
func (f Failure) MarshalJSON() ([]byte, error) {
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Target string `json:"target"`
		Error  string `json:"error"`
	}{f.Target, msg})
}

// TidyResult reports a tidy run.
type TidyResult struct {
	Plan             *TidyPlan `json:"plan"`
	DryRun           bool      `json:"dryRun"`
	Cancelled        bool      `json:"cancelled,omitempty"`
	RemovedWorktrees []string  `json:"removedWorktrees,omitempty"`
	DeletedBranches  []string  `json:"deletedBranches,omitempty"`
	Failures         []Failure `json:"failures,omitempty"`
}

// Tidy syncs the main branch, plans the cleanup of branches whose remote
// counterpart is gone and, unless opts.DryRun, executes the plan once
// confirm approves it (or opts.Force is set). A nil confirm declines.
func (e *Engine) Tidy(ctx context.Context, rc Context, opts TidyOptions, confirm func(*TidyPlan) bool) (*TidyResult, error) {
	if err := validKeep(opts.Keep); err != nil {
		return nil, err
	}

	if !opts.SkipSync {
		if err := e.Sync(ctx); err != nil {
			return nil, err
		}
	}

	plan, err := e.PlanTidy(ctx, rc, opts)
	if err != nil {
		return nil, err
	}

	res := &TidyResult{Plan: plan, DryRun: opts.DryRun}
	if plan.Empty() || opts.DryRun {
		return res, nil
	}
	if !opts.Force && (confirm == nil || !confirm(plan)) {
		res.Cancelled = true
		return res, nil
	}

	exec := e.ExecuteTidy(ctx, plan)
	exec.Plan = plan
	return exec, nil
}

// Sync checks out the main branch in the main checkout, pulls and
// fetches. This is an explicit network sync, independent of the
// background fetch throttle (which it refreshes).
func (e *Engine) Sync(ctx context.Context) error {
	cfg, err := e.project()
	if err != nil {
		return err
	}
	l := log.FromContext(ctx)

	current, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current != cfg.MainBranch {
		l.Printf("Switching to %s...\n", cfg.MainBranch)
		if err := e.git.Checkout(ctx, cfg.MainBranch); err != nil {
			return fmt.Errorf("checkout %s: %w", cfg.MainBranch, err)
		}
	}

	l.Printf("Pulling latest changes...\n")
	if err := e.git.Pull(ctx); err != nil {
		return fmt.Errorf("pull %s: %w", cfg.MainBranch, err)
	}

	l.Printf("Fetching remote branches...\n")
	if err := e.git.Fetch(ctx); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if e.throttle != nil {
		if err := e.throttle.RecordFetch(e.git.Dir()); err != nil {
			l.Debug("record fetch", "error", err)
		}
	}
	return nil
}

// PlanTidy builds the tidy plan without mutating anything. A branch is
// deleted when its remote-tracking branch is gone; a failed remote lookup
// keeps the branch.
func (e *Engine) PlanTidy(ctx context.Context, rc Context, opts TidyOptions) (*TidyPlan, error) {
	if err := validKeep(opts.Keep); err != nil {
		return nil, err
	}
	cfg, err := e.project()
	if err != nil {
		return nil, err
	}
	l := log.FromContext(ctx)

	branches, err := e.git.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return nil, err
	}
	byBranch := make(map[string]git.Worktree, len(wts))
	for _, wt := range wts {
		if wt.Branch != "" {
			byBranch[wt.Branch] = wt
		}
	}

	plan := &TidyPlan{
		MainBranch:        cfg.MainBranch,
		WorktreesToRemove: []Removal{},
		BranchesToDelete:  []string{},
	}

	for _, branch := range branches {
		if branch == cfg.MainBranch || e.protected(branch, opts.Keep) {
			continue
		}

		exists, err := e.git.RemoteBranchExists(ctx, branch)
		if err != nil {
			l.Warn("keeping %s: remote lookup failed: %v", branch, err)
			continue
		}
		if exists {
			continue
		}

		wt, hasWorktree := byBranch[branch]
		if hasWorktree {
			switch {
			case wt.IsMain:
				plan.Skipped = append(plan.Skipped, Skip{Branch: branch, Reason: "checked out in the main checkout"})
				continue
			case wt.IsCurrent:
				plan.Skipped = append(plan.Skipped, Skip{Branch: branch, Reason: "backs the current worktree"})
				continue
			}

			kind := CleanRemoval
			if !wt.Prunable {
				dirty, err := e.git.HasUncommittedChanges(ctx, wt.Path)
				if err != nil || dirty {
					// an unreadable status is flagged as a reset, never silently
					kind = ResetRemoval
				}
			}
			plan.WorktreesToRemove = append(plan.WorktreesToRemove, Removal{
				Kind:   kind,
				Name:   nameOf(wt),
				Branch: branch,
				Path:   wt.Path,
			})
		}
		plan.BranchesToDelete = append(plan.BranchesToDelete, branch)
	}

	return plan, nil
}

// ExecuteTidy carries out plan: reset and remove worktrees first, then
// delete branches. A branch whose worktree could not be removed is kept.
// Individual failures are collected, not returned.
func (e *Engine) ExecuteTidy(ctx context.Context, plan *TidyPlan) *TidyResult {
	l := log.FromContext(ctx)
	res := &TidyResult{Plan: plan}
	blocked := map[string]bool{}

	for _, r := range plan.WorktreesToRemove {
		if r.WillReset() && pathExists(r.Path) {
			l.Printf("Resetting uncommitted changes in %s...\n", r.Name)
			if err := e.git.ResetHard(ctx, r.Path); err != nil {
				res.Failures = append(res.Failures, Failure{Target: r.Path, Err: fmt.Errorf("reset: %w", err)})
				blocked[r.Branch] = true
				continue
			}
		}

		var err error
		if pathExists(r.Path) {
			err = e.git.RemoveWorktree(ctx, r.Path, true)
		}
		if err == nil && !pathExists(r.Path) {
			err = e.git.PruneWorktrees(ctx)
		}
		if err != nil {
			res.Failures = append(res.Failures, Failure{Target: r.Path, Err: err})
			blocked[r.Branch] = true
			continue
		}
		res.RemovedWorktrees = append(res.RemovedWorktrees, r.Path)
	}

	for _, b := range plan.BranchesToDelete {
		if blocked[b] {
			continue
		}
		if err := e.git.DeleteBranch(ctx, b, true); err != nil {
			res.Failures = append(res.Failures, Failure{Target: b, Err: err})
			continue
		}
		res.DeletedBranches = append(res.DeletedBranches, b)
	}

	if len(res.RemovedWorktrees) > 0 {
		if wts, err := e.git.ListWorktrees(ctx, ""); err == nil {
			e.pruneMetadata(ctx, livePaths(wts))
		}
	}
	return res
}

// protected reports whether tidy must keep branch.
func (e *Engine) protected(branch, keep string) bool {
	if slices.Contains(DefaultProtectedBranches, branch) {
		return true
	}
	for _, p := range e.settings.ProtectedBranches {
		if matchBranch(p, branch) {
			return true
		}
	}
	return keep != "" && matchBranch(keep, branch)
}

// matchBranch matches a branch against a name or path.Match glob.
func matchBranch(pattern, branch string) bool {
	if pattern == branch {
		return true
	}
	ok, err := path.Match(pattern, branch)
	return err == nil && ok
}

func validKeep(keep string) error {
	if keep == "" {
		return nil
	}
	if _, err := path.Match(keep, ""); err != nil {
		return fmt.Errorf("invalid keep pattern %q: %w", keep, err)
	}
	return nil
}
