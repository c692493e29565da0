// Package cmd provides helpers for executing external commands with proper
// error handling.
//
// Commands run under a context, are echoed by the context logger in verbose
// mode, and report failures as [*ExitError], which carries the exit code and
// the captured stderr so callers can both show git's own message and branch
// on specific failures.
//
// # Usage
//
//	out, err := cmd.OutputContext(ctx, "", "git", "-C", repo, "branch")
//	var exitErr *cmd.ExitError
//	if errors.As(err, &exitErr) {
//	    // exitErr.ExitCode, exitErr.Stderr
//	}
//
// # Design Notes
//
// vecna shells out to the git CLI rather than using a Go git library so that
// user configuration (SSH keys, credential helpers, hooks) applies unchanged.
package cmd
