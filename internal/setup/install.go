package setup

import (
	"os"
	"path/filepath"
)

// PackageManager names a dependency installer and how to invoke it.
type PackageManager struct {
	Name string
	Args []string
}

// lockfiles maps a marker file to its package manager, in priority order.
var lockfiles = []struct {
	file string
	pm   string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lock", "bun"},
	{"bun.lockb", "bun"},
	{"package-lock.json", "npm"},
	{"package.json", "npm"},
	{"Gemfile.lock", "bundle"},
	{"Gemfile", "bundle"},
	{"go.mod", "go"},
}

// installArgs holds the install invocation per package manager.
var installArgs = map[string][]string{
	"npm":    {"install"},
	"pnpm":   {"install"},
	"yarn":   {"install"},
	"bun":    {"install"},
	"bundle": {"install"},
	"go":     {"mod", "download"},
}

// DetectPackageManager picks the installer for dir. A non-empty override
// wins over detection. ok is false when nothing applies.
func DetectPackageManager(dir, override string) (PackageManager, bool) {
	if override != "" {
		args, known := installArgs[override]
		if !known {
			args = []string{"install"}
		}
		return PackageManager{Name: override, Args: args}, true
	}

	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return PackageManager{Name: lf.pm, Args: installArgs[lf.pm]}, true
		}
	}
	return PackageManager{}, false
}
