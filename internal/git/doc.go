// Package git is vecna's gateway to the git binary.
//
// All operations shell out to the git CLI through [cmd.RunContext] rather
// than using a Go git library. This keeps user configuration (SSH keys,
// credential helpers, hooks) in effect and matches what the user sees when
// running git by hand.
//
// A [Gateway] is bound to one repository root and is stateless beyond that:
// no caching, every call is one git invocation (or a small fixed sequence).
//
// # Worktree Operations
//
//   - [Gateway.ListWorktrees]: parse "git worktree list --porcelain"
//   - [Gateway.AddWorktree], [Gateway.AddWorktreeWithNewBranch]: create
//   - [Gateway.RemoveWorktree], [Gateway.PruneWorktrees]: destroy
//
// # Branch Operations
//
//   - [Gateway.BranchExists]: local, remote-tracking, or revision lookup
//   - [Gateway.RemoteBranchExists]: cached remote-tracking refs only
//   - [Gateway.AheadBehind]: left/right commit counts between two refs
//   - [Gateway.DeleteBranch]: "git branch -d/-D"
//
// # Repository Discovery
//
//   - [FindRepositoryRoot]: walk up to the nearest .git entry
//   - [IsMainRepository]: .git directory (main) vs .git file (worktree)
//   - [MainRepositoryRoot]: resolve a worktree back to its main checkout
//
// Failed git invocations surface as [*CommandError] with the exit code and
// git's stderr.
package git
