// Package setup provisions a freshly created worktree.
//
// Provisioning follows the project's worktree policy: copy untracked
// files such as .env from the main checkout, install dependencies with
// the detected package manager, then run post-create scripts. Every step
// is best-effort. A failure is reported as a warning and never undoes the
// worktree that was already created.
package setup
