// Package project persists vecna's per-project state and the per-user
// registry of known projects.
//
// The project file (.vecna.json) lives in the main checkout and carries
// the worktree policy plus descriptive metadata for each worktree vecna
// created. That metadata is a cache: git's worktree registry is always
// authoritative, and entries are pruned once their worktree is gone.
//
// The registry (<configdir>/config.json) lists every project that ran
// "vecna setup" and optionally names a default project used when vecna is
// invoked outside any repository.
package project
