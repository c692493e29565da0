package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.WorktreeDir != DefaultWorktreeDir {
		t.Errorf("WorktreeDir = %q, want %q", cfg.WorktreeDir, DefaultWorktreeDir)
	}
	if cfg.FetchInterval != 15*time.Minute {
		t.Errorf("FetchInterval = %v, want 15m", cfg.FetchInterval)
	}
	if cfg.Remote != "origin" {
		t.Errorf("Remote = %q, want origin", cfg.Remote)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
}

func TestDefaultConfigIsValidTOML(t *testing.T) {
	t.Parallel()

	content := DefaultConfig()
	var raw rawConfig
	if _, err := toml.Decode(content, &raw); err != nil {
		t.Errorf("DefaultConfig() produces invalid TOML: %v\nContent:\n%s", err, content)
	}
	if raw.FetchInterval != "15m" {
		t.Errorf("fetch_interval = %q, want 15m", raw.FetchInterval)
	}
}

func TestLoadFrom_Missing(t *testing.T) {
	t.Setenv("VECNA_WORKTREE_DIR", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v, want nil", err)
	}
	if cfg.WorktreeDir != DefaultWorktreeDir {
		t.Errorf("WorktreeDir = %q, want default", cfg.WorktreeDir)
	}
}

func TestLoadFrom_AllFields(t *testing.T) {
	t.Setenv("VECNA_WORKTREE_DIR", "")

	path := writeConfig(t, `
worktree_dir = "~/dev/trees"
fetch_interval = "5m"
protected_branches = ["release/*", "prod"]
remote = "upstream"
concurrency = 2
editor = "cursor"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.WorktreeDir != "~/dev/trees" {
		t.Errorf("WorktreeDir = %q", cfg.WorktreeDir)
	}
	if cfg.FetchInterval != 5*time.Minute {
		t.Errorf("FetchInterval = %v, want 5m", cfg.FetchInterval)
	}
	if len(cfg.ProtectedBranches) != 2 || cfg.ProtectedBranches[0] != "release/*" {
		t.Errorf("ProtectedBranches = %v", cfg.ProtectedBranches)
	}
	if cfg.Remote != "upstream" {
		t.Errorf("Remote = %q, want upstream", cfg.Remote)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if cfg.Editor != "cursor" {
		t.Errorf("Editor = %q, want cursor", cfg.Editor)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `worktree_dir = `},
		{"bad duration", `fetch_interval = "soon"`},
		{"negative duration", `fetch_interval = "-1m"`},
		{"negative concurrency", `concurrency = -1`},
		{"empty glob", `protected_branches = [""]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadFrom(writeConfig(t, tt.content)); err == nil {
				t.Errorf("LoadFrom(%q) = nil error, want error", tt.content)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	// Cannot use t.Parallel(): t.Setenv mutates process env
	t.Run("VECNA_WORKTREE_DIR overrides worktree_dir", func(t *testing.T) {
		t.Setenv("VECNA_WORKTREE_DIR", "/srv/trees")
		cfg := Default()
		if err := applyEnvOverrides(&cfg); err != nil {
			t.Fatalf("applyEnvOverrides error: %v", err)
		}
		if cfg.WorktreeDir != "/srv/trees" {
			t.Errorf("WorktreeDir = %q, want /srv/trees", cfg.WorktreeDir)
		}
	})

	t.Run("empty env leaves config unchanged", func(t *testing.T) {
		t.Setenv("VECNA_WORKTREE_DIR", "")
		cfg := Config{WorktreeDir: "../trees"}
		if err := applyEnvOverrides(&cfg); err != nil {
			t.Fatalf("applyEnvOverrides error: %v", err)
		}
		if cfg.WorktreeDir != "../trees" {
			t.Errorf("WorktreeDir = %q, want ../trees", cfg.WorktreeDir)
		}
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/trees", filepath.Join(home, "trees")},
		{"/abs/trees", "/abs/trees"},
		{".worktrees", ".worktrees"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithConfig_FromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Remote: "upstream"}
		got := FromContext(WithConfig(context.Background(), cfg))
		if got != cfg {
			t.Error("FromContext did not return the stored config")
		}
	})

	t.Run("nil when not set", func(t *testing.T) {
		t.Parallel()
		if got := FromContext(context.Background()); got != nil {
			t.Errorf("FromContext on empty context = %v, want nil", got)
		}
	})
}
