package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/storage"
)

// FileName is the project file kept in the main checkout root.
const FileName = ".vecna.json"

// ErrConfigNotFound is returned when a repository has no project file.
var ErrConfigNotFound = errors.New(`project not set up: run "vecna setup" in the main checkout`)

// WorktreePolicy controls where worktrees go and how they are provisioned.
type WorktreePolicy struct {
	BaseDirectory           string   `json:"baseDirectory,omitempty"`
	FilesToCopy             []string `json:"filesToCopy,omitempty"`
	AutoInstallDependencies bool     `json:"autoInstallDependencies"`
	PackageManagerOverride  string   `json:"packageManagerOverride,omitempty"`
	PostCreateScripts       []string `json:"postCreateScripts,omitempty"`
	EditorPreference        string   `json:"editorPreference,omitempty"`
}

// Metadata describes one worktree vecna created. It is never
// authoritative over git's worktree registry.
type Metadata struct {
	Branch         string         `json:"branch"`
	Path           string         `json:"path"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastAccessedAt time.Time      `json:"lastAccessedAt"`
	CustomConfig   map[string]any `json:"customConfig,omitempty"`
}

// Config is the project file's document.
type Config struct {
	Name           string              `json:"name"`
	Path           string              `json:"path"`
	MainBranch     string              `json:"mainBranch"`
	LinterCommands map[string]string   `json:"linterCommands,omitempty"`
	TestCommands   map[string]string   `json:"testCommands,omitempty"`
	WorktreePolicy WorktreePolicy      `json:"worktreePolicy"`
	WorktreeState  map[string]Metadata `json:"worktreeState,omitempty"`
}

// Store reads and writes the project file of one main checkout.
type Store struct {
	Root string
}

// NewStore returns a store for the main checkout at root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Path returns the project file location.
func (s *Store) Path() string {
	return filepath.Join(s.Root, FileName)
}

// Load reads the project file. A missing file yields ErrConfigNotFound.
func (s *Store) Load() (*Config, error) {
	var cfg Config
	if err := storage.LoadJSON(s.Path(), &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (%s)", ErrConfigNotFound, s.Root)
		}
		return nil, fmt.Errorf("read project file: %w", err)
	}
	if cfg.WorktreeState == nil {
		cfg.WorktreeState = map[string]Metadata{}
	}
	return &cfg, nil
}

// Save writes cfg as pretty-printed JSON.
func (s *Store) Save(cfg *Config) error {
	if err := storage.SaveJSON(s.Path(), cfg); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}

// Init creates or updates the project file for the main checkout.
// Existing policy and worktree metadata are preserved. Root must be a
// main checkout, never a linked worktree.
func (s *Store) Init(name, mainBranch string) (*Config, error) {
	if !git.IsMainRepository(s.Root) {
		return nil, fmt.Errorf("%w: %s", git.ErrNotMainRepository, s.Root)
	}

	cfg, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		cfg = &Config{
			WorktreePolicy: WorktreePolicy{AutoInstallDependencies: true},
			WorktreeState:  map[string]Metadata{},
		}
	}

	cfg.Name = name
	cfg.Path = s.Root
	cfg.MainBranch = mainBranch

	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// update loads the project file, applies fn and saves the result.
func (s *Store) update(fn func(cfg *Config) bool) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if !fn(cfg) {
		return nil
	}
	return s.Save(cfg)
}

// PutWorktree records metadata for the worktree called name.
func (s *Store) PutWorktree(name string, m Metadata) error {
	return s.update(func(cfg *Config) bool {
		cfg.WorktreeState[name] = m
		return true
	})
}

// DeleteWorktree drops the metadata for name. Unknown names are ignored.
func (s *Store) DeleteWorktree(name string) error {
	return s.update(func(cfg *Config) bool {
		if _, ok := cfg.WorktreeState[name]; !ok {
			return false
		}
		delete(cfg.WorktreeState, name)
		return true
	})
}

// Touch sets lastAccessedAt for name. Unknown names are ignored.
func (s *Store) Touch(name string, now time.Time) error {
	return s.update(func(cfg *Config) bool {
		m, ok := cfg.WorktreeState[name]
		if !ok {
			return false
		}
		m.LastAccessedAt = now
		cfg.WorktreeState[name] = m
		return true
	})
}

// Prune drops metadata whose path is not in live (the set of worktree
// paths git currently knows about) and returns the dropped names, sorted.
// Metadata paths are compared both as written and symlink-resolved.
func (s *Store) Prune(live map[string]bool) ([]string, error) {
	var pruned []string
	err := s.update(func(cfg *Config) bool {
		for name, m := range cfg.WorktreeState {
			if !live[m.Path] && !live[git.ResolvePath(m.Path)] {
				delete(cfg.WorktreeState, name)
				pruned = append(pruned, name)
			}
		}
		return len(pruned) > 0
	})
	slices.Sort(pruned)
	return pruned, err
}
