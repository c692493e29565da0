package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/setup"
)

// fakeGit is an in-memory Gateway. Worktree directories are real so the
// engine's disk checks behave as with git.
type fakeGit struct {
	mu sync.Mutex

	dir       string
	current   string // branch checked out in the main checkout
	local     []string
	remote    map[string]bool
	worktrees []git.Worktree
	dirty     map[string]bool

	remoteErr map[string]error
	statusErr map[string]error
	deleteErr map[string]error
	fetchErr  error
	addErr    error

	calls []string
}

func newFakeGit(t *testing.T) *fakeGit {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &fakeGit{
		dir:       root,
		current:   "main",
		local:     []string{"main"},
		remote:    map[string]bool{"main": true},
		worktrees: []git.Worktree{{Path: root, Branch: "main", IsMain: true}},
		dirty:     map[string]bool{},
		remoteErr: map[string]error{},
		statusErr: map[string]error{},
		deleteErr: map[string]error{},
	}
}

// addTree registers a linked worktree for branch at path and creates it.
func (f *fakeGit) addTree(t *testing.T, branch, path string) {
	t.Helper()
	if err := f.materialize(path); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(f.local, branch) {
		f.local = append(f.local, branch)
	}
	f.worktrees = append(f.worktrees, git.Worktree{Path: path, Branch: branch})
}

func (f *fakeGit) materialize(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, ".git"), []byte("gitdir: "+f.dir+"/.git/worktrees/x\n"), 0o644)
}

func (f *fakeGit) record(call string) {
	f.calls = append(f.calls, call)
}

// count returns how often a method was called.
func (f *fakeGit) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method || strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

// mutations counts calls that change repository state.
func (f *fakeGit) mutations() int {
	n := 0
	for _, m := range []string{"AddWorktree", "AddWorktreeWithNewBranch", "RemoveWorktree", "DeleteBranch", "ResetHard", "PruneWorktrees"} {
		n += f.count(m)
	}
	return n
}

func (f *fakeGit) Dir() string { return f.dir }

func (f *fakeGit) ListWorktrees(_ context.Context, cwd string) ([]git.Worktree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.worktrees)
	best := -1
	for i, wt := range out {
		_, statErr := os.Stat(wt.Path)
		out[i].Prunable = statErr != nil
		if cwd == wt.Path || strings.HasPrefix(cwd, wt.Path+string(filepath.Separator)) {
			if best < 0 || len(wt.Path) > len(out[best].Path) {
				best = i
			}
		}
	}
	if best >= 0 {
		out[best].IsCurrent = true
	}
	return out, nil
}

func (f *fakeGit) inUse(branch string) bool {
	for _, wt := range f.worktrees {
		if wt.Branch == branch {
			return true
		}
	}
	return false
}

func (f *fakeGit) AddWorktree(_ context.Context, path, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddWorktree " + branch)
	if f.addErr != nil {
		return f.addErr
	}
	if f.inUse(branch) {
		return &git.CommandError{Name: "git", ExitCode: 128, Stderr: fmt.Sprintf("fatal: '%s' is already used by worktree", branch)}
	}
	if err := f.materialize(path); err != nil {
		return err
	}
	if !slices.Contains(f.local, branch) {
		f.local = append(f.local, branch)
	}
	f.worktrees = append(f.worktrees, git.Worktree{Path: path, Branch: branch})
	return nil
}

func (f *fakeGit) AddWorktreeWithNewBranch(_ context.Context, path, branch, fromRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddWorktreeWithNewBranch " + branch + " " + fromRef)
	if fromRef == "" {
		return errors.New("source ref is required")
	}
	if err := f.materialize(path); err != nil {
		return err
	}
	f.local = append(f.local, branch)
	f.worktrees = append(f.worktrees, git.Worktree{Path: path, Branch: branch})
	return nil
}

func (f *fakeGit) RemoveWorktree(_ context.Context, path string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveWorktree " + path)
	if f.dirty[path] && !force {
		return &git.CommandError{Name: "git", ExitCode: 128, Stderr: "fatal: contains modified or untracked files, use --force to delete it"}
	}
	f.worktrees = slices.DeleteFunc(f.worktrees, func(wt git.Worktree) bool { return wt.Path == path })
	delete(f.dirty, path)
	return os.RemoveAll(path)
}

func (f *fakeGit) PruneWorktrees(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PruneWorktrees")
	f.worktrees = slices.DeleteFunc(f.worktrees, func(wt git.Worktree) bool {
		_, err := os.Stat(wt.Path)
		return !wt.IsMain && err != nil
	})
	return nil
}

func (f *fakeGit) LocalBranches(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.local), nil
}

func (f *fakeGit) BranchExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.local, name) || f.remote[name], nil
}

func (f *fakeGit) RemoteBranchExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.remoteErr[name]; err != nil {
		return false, err
	}
	return f.remote[name], nil
}

func (f *fakeGit) DeleteBranch(_ context.Context, name string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteBranch " + name)
	if err := f.deleteErr[name]; err != nil && !force {
		return err
	}
	if f.inUse(name) {
		return &git.CommandError{Name: "git", ExitCode: 1, Stderr: fmt.Sprintf("error: cannot delete branch '%s' checked out at", name)}
	}
	f.local = slices.DeleteFunc(f.local, func(b string) bool { return b == name })
	return nil
}

func (f *fakeGit) CurrentBranch(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeGit) DefaultBranch(context.Context) string { return "main" }

func (f *fakeGit) Checkout(_ context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Checkout " + branch)
	f.current = branch
	return nil
}

func (f *fakeGit) Pull(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Pull")
	return nil
}

func (f *fakeGit) Fetch(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Fetch")
	return f.fetchErr
}

func (f *fakeGit) HasUncommittedChanges(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusErr[path]; err != nil {
		return false, err
	}
	return f.dirty[path], nil
}

func (f *fakeGit) LastCommit(_ context.Context, path string) (git.Commit, error) {
	return git.Commit{Hash: "0123456789abcdef", Message: "work in " + filepath.Base(path), Time: time.Unix(1_700_000_000, 0)}, nil
}

func (f *fakeGit) AheadBehind(context.Context, string, string) (git.SyncStatus, error) {
	return git.SyncStatus{Ahead: 2, Behind: 1}, nil
}

func (f *fakeGit) ResetHard(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResetHard " + path)
	f.dirty[path] = false
	return nil
}

// fakeThrottle records fetch bookkeeping.
type fakeThrottle struct {
	due      bool
	recorded int
}

func (t *fakeThrottle) ShouldFetch(string) bool { return t.due }

func (t *fakeThrottle) RecordFetch(string) error {
	t.recorded++
	t.due = false
	return nil
}

// fakeProvisioner records provisioning requests.
type fakeProvisioner struct {
	requests []setup.Request
}

func (p *fakeProvisioner) Run(_ context.Context, req setup.Request) *setup.Result {
	p.requests = append(p.requests, req)
	return &setup.Result{Copied: []string{".env"}}
}

// failingStore refuses metadata writes.
type failingStore struct {
	*project.Store
}

func (failingStore) PutWorktree(string, project.Metadata) error {
	return errors.New("disk full")
}

// newTestEngine wires an engine over f with an initialized project store.
func newTestEngine(t *testing.T, f *fakeGit) (*Engine, *project.Store) {
	t.Helper()
	store := project.NewStore(f.dir)
	if _, err := store.Init("proj", "main"); err != nil {
		t.Fatal(err)
	}
	e := New(Options{
		Git:      f,
		Store:    store,
		Settings: Settings{BaseDir: ".worktrees"},
		Now:      func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return e, store
}

func unmergedError(branch string) error {
	return &git.CommandError{
		Name:     "git",
		Args:     []string{"branch", "-d", branch},
		ExitCode: 1,
		Stderr:   fmt.Sprintf("error: the branch '%s' is not fully merged", branch),
	}
}

func gitWorktree(path, branch string) git.Worktree {
	return git.Worktree{Path: path, Branch: branch}
}
