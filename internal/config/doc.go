// Package config handles loading and validation of vecna's user settings.
//
// Settings are read from ~/.config/vecna/config.toml (or the directory named
// by VECNA_CONFIG_DIR) with environment variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - VECNA_WORKTREE_DIR env var: base directory for new worktrees
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - worktree_dir: base directory for worktrees. Absolute, ~/..., or
//     relative to the main checkout (default ".worktrees"). A project's own
//     worktreePolicy.baseDirectory takes precedence.
//   - fetch_interval: how long a background fetch stays fresh (default "15m")
//   - protected_branches: extra branch names or globs tidy never deletes
//   - remote: remote whose tracking branches decide "gone" (default "origin")
//   - concurrency: parallel git queries while listing (default 8)
//
// Per-project state (.vecna.json) is not configuration in this sense and
// lives in the project package.
package config
