package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/setup"
	"github.com/raphi011/vecna/internal/worktree"
)

// Gateway is the version-control surface the engine needs.
// *git.Gateway implements it.
type Gateway interface {
	Dir() string
	ListWorktrees(ctx context.Context, cwd string) ([]git.Worktree, error)
	AddWorktree(ctx context.Context, path, branch string) error
	AddWorktreeWithNewBranch(ctx context.Context, path, branch, fromRef string) error
	RemoveWorktree(ctx context.Context, path string, force bool) error
	PruneWorktrees(ctx context.Context) error
	LocalBranches(ctx context.Context) ([]string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	RemoteBranchExists(ctx context.Context, name string) (bool, error)
	DeleteBranch(ctx context.Context, name string, force bool) error
	CurrentBranch(ctx context.Context) (string, error)
	DefaultBranch(ctx context.Context) string
	Checkout(ctx context.Context, branch string) error
	Pull(ctx context.Context) error
	Fetch(ctx context.Context) error
	HasUncommittedChanges(ctx context.Context, path string) (bool, error)
	LastCommit(ctx context.Context, path string) (git.Commit, error)
	AheadBehind(ctx context.Context, branch, against string) (git.SyncStatus, error)
	ResetHard(ctx context.Context, path string) error
}

// Store persists per-project state. *project.Store implements it.
type Store interface {
	Load() (*project.Config, error)
	PutWorktree(name string, m project.Metadata) error
	DeleteWorktree(name string) error
	Touch(name string, now time.Time) error
	Prune(live map[string]bool) ([]string, error)
}

// Throttle decides when a background fetch is due.
// *fetchcache.Throttle implements it.
type Throttle interface {
	ShouldFetch(repo string) bool
	RecordFetch(repo string) error
}

// Provisioner prepares a new worktree. setup.Provisioner implements it.
type Provisioner interface {
	Run(ctx context.Context, req setup.Request) *setup.Result
}

// Settings are user-level defaults from config.toml.
type Settings struct {
	// BaseDir is used when the project policy names no base directory.
	BaseDir string
	// ProtectedBranches are extra names or globs tidy never deletes.
	ProtectedBranches []string
	// Concurrency bounds parallel enrichment queries.
	Concurrency int
}

// Options holds the engine's collaborators. Git and Store are required.
type Options struct {
	Git         Gateway
	Store       Store
	Throttle    Throttle
	Provisioner Provisioner
	Settings    Settings
	Now         func() time.Time
}

// Context is the caller's resolution context.
type Context struct {
	// Cwd decides which worktree is current.
	Cwd string
}

// Engine runs worktree lifecycle operations for one project.
type Engine struct {
	git         Gateway
	store       Store
	throttle    Throttle
	provisioner Provisioner
	settings    Settings
	now         func() time.Time
}

// New builds an engine from resolved collaborators.
func New(opts Options) *Engine {
	e := &Engine{
		git:         opts.Git,
		store:       opts.Store,
		throttle:    opts.Throttle,
		provisioner: opts.Provisioner,
		settings:    opts.Settings,
		now:         opts.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.settings.Concurrency <= 0 {
		e.settings.Concurrency = 8
	}
	return e
}

// Root returns the main checkout the engine operates on.
func (e *Engine) Root() string { return e.git.Dir() }

// MaybeFetch runs a background fetch when the throttle says one is due.
// A failed fetch is logged and otherwise ignored; it reports whether a
// fetch succeeded.
func (e *Engine) MaybeFetch(ctx context.Context) bool {
	if e.throttle == nil {
		return false
	}
	repo := e.git.Dir()
	if !e.throttle.ShouldFetch(repo) {
		return false
	}

	l := log.FromContext(ctx)
	if err := e.git.Fetch(ctx); err != nil {
		l.Warn("fetch failed, using cached remote state: %v", err)
		return false
	}
	if err := e.throttle.RecordFetch(repo); err != nil {
		l.Debug("record fetch", "error", err)
	}
	return true
}

// project loads the project file.
func (e *Engine) project() (*project.Config, error) {
	return e.store.Load()
}

// projectOrDefault loads the project file, or synthesizes one from git
// when the project has not been set up. Read-only operations use it.
func (e *Engine) projectOrDefault(ctx context.Context) *project.Config {
	cfg, err := e.store.Load()
	if err == nil {
		return cfg
	}
	if !errors.Is(err, project.ErrConfigNotFound) {
		log.FromContext(ctx).Warn("%v", err)
	}
	return &project.Config{
		Path:          e.git.Dir(),
		MainBranch:    e.git.DefaultBranch(ctx),
		WorktreeState: map[string]project.Metadata{},
	}
}

// baseDir returns the directory new worktrees are created in.
func (e *Engine) baseDir(cfg *project.Config) string {
	dir := cfg.WorktreePolicy.BaseDirectory
	if dir == "" {
		dir = e.settings.BaseDir
	}
	return worktree.BaseDir(e.git.Dir(), dir)
}

// canonical returns path with symlinks resolved, including those of
// its existing ancestors.
func canonical(path string) string { return git.ResolvePath(path) }

// livePaths returns the canonical paths of the registry entries.
func livePaths(wts []git.Worktree) map[string]bool {
	live := make(map[string]bool, len(wts)*2)
	for _, wt := range wts {
		live[wt.Path] = true
		live[canonical(wt.Path)] = true
	}
	return live
}

// nameOf returns the worktree name used for metadata and lookup.
func nameOf(wt git.Worktree) string {
	if wt.Branch == "" {
		return filepath.Base(wt.Path)
	}
	return worktree.Name(wt.Branch)
}

func isConfigNotFound(err error) bool {
	return errors.Is(err, project.ErrConfigNotFound)
}
