// Package reconcile is vecna's worktree lifecycle engine.
//
// Three sources describe a project's worktrees: git's worktree registry,
// the project file's per-worktree metadata and the directories on disk.
// Git is authoritative. The engine reads all three, enriches the registry
// with commit, sync and remote state, and carries out create, remove,
// tidy and clean so that metadata and disk converge on what git says.
//
// # Resolution
//
// An [Engine] is built once per invocation from already-resolved
// collaborators (gateway, store, throttle, provisioner). The caller's
// working directory is never read from the process: every operation takes
// a [Context] carrying it explicitly.
//
// # Ordering
//
// Mutations go to git first and to metadata second. Metadata writes are
// best-effort and never roll back a git mutation. Tidy always builds a
// [TidyPlan] before touching anything; a dry run returns the same plan a
// live run would execute.
//
// # Concurrency
//
// Only the read-only enrichment in [Engine.List] runs in parallel.
// Create, Remove, Tidy and Clean run their git commands sequentially.
package reconcile
