package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/vecna/internal/git"
)

func TestLoadRegistryFrom_AutoCreates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vecna", RegistryFileName)
	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Projects == nil || len(reg.Projects) != 0 {
		t.Errorf("Projects = %v, want empty slice", reg.Projects)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("registry file not created: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "{\n  \"projects\": []\n}" {
		t.Errorf("registry file = %q", got)
	}
}

func TestRegistry_UpsertAndDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RegistryFileName)
	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	reg.Upsert(Config{Name: "api", Path: "/src/api", MainBranch: "main",
		WorktreeState: map[string]Metadata{"x": {Branch: "x"}}})
	reg.Upsert(Config{Name: "web", Path: "/src/web", MainBranch: "main"})
	reg.Upsert(Config{Name: "api", Path: "/src/api2", MainBranch: "develop"})

	if len(reg.Projects) != 2 {
		t.Fatalf("Projects = %+v, want 2 entries", reg.Projects)
	}
	api, ok := reg.Find("api")
	if !ok || api.Path != "/src/api2" || api.MainBranch != "develop" {
		t.Errorf("Find(api) = %+v, %v; want last writer", api, ok)
	}
	if api.WorktreeState != nil {
		t.Error("registry should not carry worktree metadata")
	}

	if err := reg.SetDefault("nope"); err == nil {
		t.Error("SetDefault(nope) should fail for unregistered project")
	}
	if err := reg.SetDefault("web"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.DefaultProject == nil || reloaded.DefaultProject.Path != "/src/web" {
		t.Errorf("DefaultProject = %+v, want web", reloaded.DefaultProject)
	}

	if !reloaded.ClearDefault() {
		t.Error("ClearDefault() = false, want true")
	}
	if reloaded.ClearDefault() {
		t.Error("second ClearDefault() = true, want false")
	}
}

func TestLoadRegistryFrom_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), RegistryFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("LoadRegistryFrom() should fail on corrupt file")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "vecna")
	if _, err := LoadRegistryFrom(filepath.Join(dir, RegistryFileName)); err != nil {
		t.Fatal(err)
	}
	if err := Reset(dir); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("config directory should be gone after Reset")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := newMainCheckout(t)
	sub := filepath.Join(root, "pkg", "x")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := Resolve(sub, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s.Root != root {
		t.Errorf("Resolve().Root = %q, want %q", s.Root, root)
	}
}

func TestResolve_DefaultProjectFallback(t *testing.T) {
	t.Parallel()

	outside, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Resolve(outside, nil); !errors.Is(err, git.ErrNotARepository) {
		t.Fatalf("Resolve() without default error = %v, want ErrNotARepository", err)
	}

	reg := &Registry{DefaultProject: &ProjectRef{Name: "api", Path: "/src/api"}}
	s, err := Resolve(outside, reg)
	if err != nil {
		t.Fatalf("Resolve() with default error = %v", err)
	}
	if s.Root != "/src/api" {
		t.Errorf("Resolve().Root = %q, want /src/api", s.Root)
	}
}
