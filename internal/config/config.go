package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/vecna/internal/storage"
)

const (
	// DefaultWorktreeDir is relative to the main checkout.
	DefaultWorktreeDir = ".worktrees"

	// DefaultFetchInterval is how long a background fetch is trusted.
	DefaultFetchInterval = 15 * time.Minute

	DefaultRemote      = "origin"
	DefaultConcurrency = 8
)

// Config holds the vecna user settings.
type Config struct {
	WorktreeDir       string
	FetchInterval     time.Duration
	ProtectedBranches []string
	Remote            string
	Concurrency       int
	Editor            string
}

// rawConfig mirrors the TOML file before validation.
type rawConfig struct {
	WorktreeDir       string   `toml:"worktree_dir"`
	FetchInterval     string   `toml:"fetch_interval"`
	ProtectedBranches []string `toml:"protected_branches"`
	Remote            string   `toml:"remote"`
	Concurrency       int      `toml:"concurrency"`
	Editor            string   `toml:"editor"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		WorktreeDir:   DefaultWorktreeDir,
		FetchInterval: DefaultFetchInterval,
		Remote:        DefaultRemote,
		Concurrency:   DefaultConcurrency,
	}
}

// DefaultConfig returns a commented config file with every setting at its
// default, written by "vecna setup" when no file exists yet.
func DefaultConfig() string {
	return `# vecna configuration

# Base directory for worktrees. Absolute, ~/..., or relative to the main
# checkout. A project's worktreePolicy.baseDirectory wins over this.
worktree_dir = ".worktrees"

# How long a background "git fetch" stays fresh before list/switch fetch again.
fetch_interval = "15m"

# Branch names or globs that "vecna tidy" never deletes, in addition to
# main, master, develop and staging.
protected_branches = []

# Remote whose tracking branches decide whether a branch is gone.
remote = "origin"

# Parallel git queries while listing worktrees.
concurrency = 8

# Editor command used by "vecna switch --editor" (empty = auto-detect).
editor = ""
`
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := storage.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the user config directory.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the config file at path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, applyEnvOverrides(&cfg)
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if raw.WorktreeDir != "" {
		cfg.WorktreeDir = raw.WorktreeDir
	}
	if raw.FetchInterval != "" {
		d, err := time.ParseDuration(raw.FetchInterval)
		if err != nil {
			return Default(), fmt.Errorf("invalid fetch_interval %q: %w", raw.FetchInterval, err)
		}
		if d <= 0 {
			return Default(), fmt.Errorf("invalid fetch_interval %q: must be positive", raw.FetchInterval)
		}
		cfg.FetchInterval = d
	}
	if raw.Remote != "" {
		cfg.Remote = raw.Remote
	}
	if raw.Concurrency < 0 {
		return Default(), fmt.Errorf("invalid concurrency %d: must not be negative", raw.Concurrency)
	}
	if raw.Concurrency > 0 {
		cfg.Concurrency = raw.Concurrency
	}
	cfg.Editor = raw.Editor

	if err := validatePatterns(raw.ProtectedBranches); err != nil {
		return Default(), err
	}
	cfg.ProtectedBranches = raw.ProtectedBranches

	if err := applyEnvOverrides(&cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// applyEnvOverrides applies VECNA_* environment variables on top of cfg.
func applyEnvOverrides(cfg *Config) error {
	if dir := os.Getenv("VECNA_WORKTREE_DIR"); dir != "" {
		cfg.WorktreeDir = dir
	}
	return nil
}

// validatePatterns rejects globs filepath.Match cannot parse.
func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("invalid protected_branches entry: empty pattern")
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid protected_branches pattern %q: %w", p, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

type ctxKey struct{}

// WithConfig attaches a config to the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext retrieves the config from context, or nil if none is set.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(ctxKey{}).(*Config)
	return cfg
}
