package git

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// LocalBranches returns all local branch names.
func (g *Gateway) LocalBranches(ctx context.Context) ([]string, error) {
	output, err := outputGit(ctx, g.dir, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return parseBranchList(string(output)), nil
}

// RemoteBranches returns remote-tracking branch names as "<remote>/<branch>".
// Symbolic refs such as origin/HEAD are skipped.
func (g *Gateway) RemoteBranches(ctx context.Context) ([]string, error) {
	output, err := outputGit(ctx, g.dir, "branch", "-r", "--format=%(refname:short)")
	if err != nil {
		return nil, fmt.Errorf("failed to list remote branches: %w", err)
	}

	var branches []string
	for _, b := range parseBranchList(string(output)) {
		// "origin" alone is how newer git shortens origin/HEAD
		if !strings.Contains(b, "/") || strings.HasSuffix(b, "/HEAD") {
			continue
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// BranchExists reports whether name can back a worktree without creating it:
// it is a local branch, a remote-tracking branch once the remote prefix is
// stripped, or it resolves as refs/heads/<name> (which also covers branches
// held by other worktrees that "git branch" output may not show).
func (g *Gateway) BranchExists(ctx context.Context, name string) (bool, error) {
	local, err := g.LocalBranches(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(local, name) {
		return true, nil
	}

	remote, err := g.RemoteBranches(ctx)
	if err != nil {
		return false, err
	}
	for _, rb := range remote {
		if stripRemote(rb) == name {
			return true, nil
		}
	}

	return runGit(ctx, g.dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+name) == nil, nil
}

// RemoteBranchExists reports whether <remote>/<name> is among the locally
// cached remote-tracking branches. It never contacts the remote; callers
// decide when a fetch is due.
func (g *Gateway) RemoteBranchExists(ctx context.Context, name string) (bool, error) {
	remote, err := g.RemoteBranches(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(remote, g.remote+"/"+name), nil
}

// DeleteBranch deletes a local branch. Without force, git refuses branches
// that are not fully merged; see [IsUnmergedBranchError].
func (g *Gateway) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return runGit(ctx, g.dir, "branch", flag, name)
}

// parseBranchList splits "--format=%(refname:short)" output into names.
func parseBranchList(output string) []string {
	var branches []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "(") {
			// "(HEAD detached at ...)"
			continue
		}
		branches = append(branches, line)
	}
	return branches
}

// stripRemote removes the leading "<remote>/" from a remote-tracking name.
func stripRemote(name string) string {
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return rest
	}
	return name
}
