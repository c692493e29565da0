package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/setup"
	"github.com/raphi011/vecna/internal/worktree"
)

// CreateOptions tunes Create.
type CreateOptions struct {
	// From is the start point of a new branch; the project's main branch
	// when empty. Ignored when the branch already exists.
	From string
	// SkipInstall skips dependency installation during provisioning.
	SkipInstall bool
	// SkipSetup skips provisioning entirely.
	SkipSetup bool
}

// Created describes a new worktree.
type Created struct {
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	Branch    string        `json:"branch"`
	NewBranch bool          `json:"newBranch"`
	From      string        `json:"from,omitempty"`
	Setup     *setup.Result `json:"setup,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// Create adds a worktree for branch at its deterministic path. An
// existing branch is attached as-is; otherwise a new branch is created
// from opts.From. Nothing is mutated when the path is taken
// (*PathExistsError) or the branch already backs a worktree
// (*BranchInUseError).
func (e *Engine) Create(ctx context.Context, rc Context, branch string, opts CreateOptions) (*Created, error) {
	l := log.FromContext(ctx)

	branch = strings.TrimSpace(branch)
	name := worktree.Name(branch)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid branch name %q", branch)
	}

	cfg, err := e.project()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(e.baseDir(cfg), name)
	if _, err := os.Lstat(path); err == nil {
		return nil, &PathExistsError{Path: path}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}

	wts, err := e.git.ListWorktrees(ctx, rc.Cwd)
	if err != nil {
		return nil, err
	}
	for _, wt := range wts {
		if wt.Branch == branch {
			return nil, &BranchInUseError{Branch: branch, WorktreePath: wt.Path}
		}
	}

	// remote-only branches need fresh tracking refs to be found
	e.MaybeFetch(ctx)

	exists, err := e.git.BranchExists(ctx, branch)
	if err != nil {
		return nil, err
	}

	res := &Created{Name: name, Path: path, Branch: branch}
	if exists {
		l.Debug("attaching existing branch", "branch", branch, "path", path)
		if err := e.git.AddWorktree(ctx, path, branch); err != nil {
			if git.IsBranchCheckedOutError(err) {
				return nil, e.branchInUse(ctx, rc, branch)
			}
			return nil, err
		}
	} else {
		from := opts.From
		if from == "" {
			from = cfg.MainBranch
		}
		l.Debug("creating branch", "branch", branch, "from", from, "path", path)
		if err := e.git.AddWorktreeWithNewBranch(ctx, path, branch, from); err != nil {
			return nil, err
		}
		res.NewBranch = true
		res.From = from
	}

	// git reports worktrees by their resolved path; metadata follows.
	path = canonical(path)
	res.Path = path

	now := e.now()
	if err := e.store.PutWorktree(name, project.Metadata{
		Branch:         branch,
		Path:           path,
		CreatedAt:      now,
		LastAccessedAt: now,
	}); err != nil {
		msg := fmt.Sprintf("worktree created but metadata not saved: %v", err)
		res.Warnings = append(res.Warnings, msg)
		l.Warn("%s", msg)
	}

	if e.provisioner != nil && !opts.SkipSetup {
		res.Setup = e.provisioner.Run(ctx, setup.Request{
			Vars: setup.ScriptVars{
				Path:     path,
				Branch:   branch,
				Name:     name,
				MainRepo: e.git.Dir(),
			},
			Policy:      cfg.WorktreePolicy,
			SkipInstall: opts.SkipInstall,
		})
	}

	return res, nil
}

// branchInUse builds the error for a branch git refused to attach because
// another worktree picked it up after the preflight check.
func (e *Engine) branchInUse(ctx context.Context, rc Context, branch string) error {
	inUse := &BranchInUseError{Branch: branch, WorktreePath: "another worktree"}
	if wts, err := e.git.ListWorktrees(ctx, rc.Cwd); err == nil {
		for _, wt := range wts {
			if wt.Branch == branch {
				inUse.WorktreePath = wt.Path
			}
		}
	}
	return inUse
}
