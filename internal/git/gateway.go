package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultRemote is the remote consulted for remote-tracking branches.
const DefaultRemote = "origin"

// Gateway runs git commands against one repository.
// It holds no state besides the repository root and remote name.
type Gateway struct {
	dir    string
	remote string
}

// New returns a Gateway for the repository at dir using the "origin" remote.
func New(dir string) *Gateway {
	return NewWithRemote(dir, DefaultRemote)
}

// NewWithRemote returns a Gateway for the repository at dir that treats
// remote as the authoritative remote.
func NewWithRemote(dir, remote string) *Gateway {
	if remote == "" {
		remote = DefaultRemote
	}
	return &Gateway{dir: dir, remote: remote}
}

// Dir returns the repository root the gateway operates on.
func (g *Gateway) Dir() string { return g.dir }

// Remote returns the remote name used for remote-tracking lookups.
func (g *Gateway) Remote() string { return g.remote }

// Commit describes a single commit.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// SyncStatus holds commit counts relative to a comparison ref.
type SyncStatus struct {
	Ahead  int `json:"aheadCount"`
	Behind int `json:"behindCount"`
}

// CurrentBranch returns the branch checked out in the gateway's directory,
// or "" for a detached HEAD.
func (g *Gateway) CurrentBranch(ctx context.Context) (string, error) {
	output, err := outputGit(ctx, g.dir, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// DefaultBranch returns the remote's default branch name (e.g. "main").
// Falls back to main/master probing and finally "main".
func (g *Gateway) DefaultBranch(ctx context.Context) string {
	output, err := outputGit(ctx, g.dir, "symbolic-ref", "refs/remotes/"+g.remote+"/HEAD")
	if err == nil {
		ref := strings.TrimSpace(string(output))
		if b := strings.TrimPrefix(ref, "refs/remotes/"+g.remote+"/"); b != ref && b != "" {
			return b
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if runGit(ctx, g.dir, "rev-parse", "--verify", "--quiet", "refs/remotes/"+g.remote+"/"+candidate) == nil {
			return candidate
		}
	}
	for _, candidate := range []string{"main", "master"} {
		if runGit(ctx, g.dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+candidate) == nil {
			return candidate
		}
	}

	return "main"
}

// Checkout switches the gateway's directory to branch.
func (g *Gateway) Checkout(ctx context.Context, branch string) error {
	return runGit(ctx, g.dir, "checkout", branch)
}

// Pull pulls the current branch from its upstream.
func (g *Gateway) Pull(ctx context.Context) error {
	return runGit(ctx, g.dir, "pull")
}

// Fetch fetches the remote and prunes remote-tracking branches that no
// longer exist there. This is the only network operation of the gateway.
func (g *Gateway) Fetch(ctx context.Context) error {
	return runGit(ctx, g.dir, "fetch", "--prune", "--quiet", g.remote)
}

// HasUncommittedChanges reports whether the worktree at path has staged,
// unstaged or untracked changes.
func (g *Gateway) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	output, err := outputGit(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// LastCommit returns HEAD's commit for the worktree at path.
func (g *Gateway) LastCommit(ctx context.Context, path string) (Commit, error) {
	output, err := outputGit(ctx, path, "log", "-1", "--format=%H%x00%s%x00%ct")
	if err != nil {
		return Commit{}, err
	}
	return parseCommit(string(output))
}

// ResetHard discards all uncommitted changes, including untracked files,
// in the worktree at path.
func (g *Gateway) ResetHard(ctx context.Context, path string) error {
	if err := runGit(ctx, path, "reset", "--hard", "HEAD"); err != nil {
		return err
	}
	return runGit(ctx, path, "clean", "-fd")
}

// AheadBehind counts commits reachable from branch but not against (Ahead)
// and from against but not branch (Behind).
func (g *Gateway) AheadBehind(ctx context.Context, branch, against string) (SyncStatus, error) {
	output, err := outputGit(ctx, g.dir, "rev-list", "--left-right", "--count", branch+"..."+against)
	if err != nil {
		return SyncStatus{}, err
	}
	return parseAheadBehind(string(output))
}

// parseCommit parses "%H%x00%s%x00%ct" log output.
func parseCommit(output string) (Commit, error) {
	parts := strings.SplitN(strings.TrimRight(output, "\n"), "\x00", 3)
	if len(parts) != 3 {
		return Commit{}, fmt.Errorf("unexpected git log output: %q", output)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return Commit{}, fmt.Errorf("failed to parse commit timestamp: %w", err)
	}
	return Commit{Hash: parts[0], Message: parts[1], Time: time.Unix(ts, 0)}, nil
}

// parseAheadBehind parses "rev-list --left-right --count" output ("3\t1").
func parseAheadBehind(output string) (SyncStatus, error) {
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return SyncStatus{}, fmt.Errorf("unexpected rev-list output: %q", output)
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return SyncStatus{}, fmt.Errorf("failed to parse ahead count: %w", err)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return SyncStatus{}, fmt.Errorf("failed to parse behind count: %w", err)
	}
	return SyncStatus{Ahead: ahead, Behind: behind}, nil
}
