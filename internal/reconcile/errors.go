package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCurrentWorktree is returned when asked to remove the worktree the
	// caller is standing in.
	ErrCurrentWorktree = errors.New("cannot remove the current worktree: switch to another worktree first")

	// ErrMainWorktree is returned when asked to remove the main checkout.
	ErrMainWorktree = errors.New("cannot remove the main checkout")
)

// PathExistsError reports that a new worktree's target path is taken.
type PathExistsError struct {
	Path string
}

func (e *PathExistsError) Error() string {
	return fmt.Sprintf("path already exists: %s", e.Path)
}

// BranchInUseError reports that a branch already backs a worktree.
type BranchInUseError struct {
	Branch       string
	WorktreePath string
}

func (e *BranchInUseError) Error() string {
	return fmt.Sprintf("branch %q is already checked out at %s (use \"vecna switch\" to go there)", e.Branch, e.WorktreePath)
}

// UncommittedChangesError reports a worktree that would lose changes.
type UncommittedChangesError struct {
	Path string
}

func (e *UncommittedChangesError) Error() string {
	return fmt.Sprintf("worktree %s has uncommitted changes (use --force to remove anyway)", e.Path)
}

// BranchDeleteError reports that a worktree was removed but its branch
// could not be deleted. Unmerged is set when git refused because the
// branch is not fully merged, so the caller can offer a forced delete.
type BranchDeleteError struct {
	Branch   string
	Unmerged bool
	Err      error
}

func (e *BranchDeleteError) Error() string {
	if e.Unmerged {
		return fmt.Sprintf("branch %q is not fully merged; delete it with \"git branch -D %s\"", e.Branch, e.Branch)
	}
	return fmt.Sprintf("delete branch %q: %v", e.Branch, e.Err)
}

func (e *BranchDeleteError) Unwrap() error { return e.Err }

// NotFoundError reports a worktree query that matched nothing.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no worktree matches %q", e.Query)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}
