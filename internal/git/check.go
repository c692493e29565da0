package git

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/raphi011/vecna/internal/cmd"
)

// CommandError reports a git invocation that exited non-zero.
type CommandError = cmd.ExitError

var (
	// ErrGitNotFound indicates git is not installed or not in PATH
	ErrGitNotFound = errors.New("git not found: please install git (https://git-scm.com)")

	// ErrNotARepository is returned when no .git entry exists between a
	// path and the filesystem root.
	ErrNotARepository = errors.New("not a git repository")

	// ErrNotMainRepository is returned when an operation needs the main
	// checkout but was given a linked worktree.
	ErrNotMainRepository = errors.New("not the main repository: run from the main checkout, not a worktree")
)

// CheckGit verifies that git is available in PATH
func CheckGit() error {
	_, err := exec.LookPath("git")
	if err != nil {
		return ErrGitNotFound
	}
	return nil
}

// IsUnmergedBranchError reports whether err is git refusing "branch -d"
// because the branch is not fully merged.
func IsUnmergedBranchError(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Stderr, "not fully merged") ||
		strings.Contains(cmdErr.Stderr, "not merged")
}

// IsBranchCheckedOutError reports whether err is git refusing to touch a
// branch that is checked out in some worktree.
func IsBranchCheckedOutError(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Stderr, "checked out at") ||
		strings.Contains(cmdErr.Stderr, "is already used by worktree")
}
