package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/storage"
)

// RegistryFileName is the registry document inside the config directory.
const RegistryFileName = "config.json"

// ProjectRef points at a registered project.
type ProjectRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Registry is the per-user list of known projects.
type Registry struct {
	Projects       []Config    `json:"projects"`
	DefaultProject *ProjectRef `json:"defaultProject,omitempty"`

	path string
}

// RegistryPath returns <configdir>/config.json.
func RegistryPath() (string, error) {
	dir, err := storage.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, RegistryFileName), nil
}

// LoadRegistry reads the registry from the user config directory,
// creating it as {"projects": []} on first access.
func LoadRegistry() (*Registry, error) {
	path, err := RegistryPath()
	if err != nil {
		return nil, err
	}
	return LoadRegistryFrom(path)
}

// LoadRegistryFrom reads the registry at path, creating it if missing.
func LoadRegistryFrom(path string) (*Registry, error) {
	reg := &Registry{path: path}
	if err := storage.LoadJSON(path, reg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		reg.Projects = []Config{}
		if err := reg.Save(); err != nil {
			return nil, err
		}
	}
	if reg.Projects == nil {
		reg.Projects = []Config{}
	}
	return reg, nil
}

// Save writes the registry back to the file it was loaded from.
func (r *Registry) Save() error {
	if err := storage.SaveJSON(r.path, r); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// Upsert adds cfg or replaces the project with the same name.
// Per-worktree metadata stays in the project file only.
func (r *Registry) Upsert(cfg Config) {
	cfg.WorktreeState = nil
	i := slices.IndexFunc(r.Projects, func(p Config) bool { return p.Name == cfg.Name })
	if i >= 0 {
		r.Projects[i] = cfg
		return
	}
	r.Projects = append(r.Projects, cfg)
}

// Find returns the project called name.
func (r *Registry) Find(name string) (*Config, bool) {
	for i := range r.Projects {
		if r.Projects[i].Name == name {
			return &r.Projects[i], true
		}
	}
	return nil, false
}

// SetDefault makes the registered project name the default project.
func (r *Registry) SetDefault(name string) error {
	p, ok := r.Find(name)
	if !ok {
		return fmt.Errorf("project %q is not registered", name)
	}
	r.DefaultProject = &ProjectRef{Name: p.Name, Path: p.Path}
	return nil
}

// ClearDefault removes the default project and reports whether one was set.
func (r *Registry) ClearDefault() bool {
	had := r.DefaultProject != nil
	r.DefaultProject = nil
	return had
}

// Reset deletes the whole config directory at dir: registry, settings and
// fetch cache. Project files inside repositories are left alone.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// Resolve returns the store for the main checkout containing cwd,
// following a linked worktree back to its main checkout. Outside any
// repository it falls back to the registry's default project; reg may be
// nil to disable that fallback.
func Resolve(cwd string, reg *Registry) (*Store, error) {
	root, err := git.MainRepositoryRoot(cwd)
	if err == nil {
		return NewStore(root), nil
	}
	if !errors.Is(err, git.ErrNotARepository) || reg == nil || reg.DefaultProject == nil {
		return nil, err
	}
	return NewStore(reg.DefaultProject.Path), nil
}
