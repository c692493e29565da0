package setup

import (
	"strings"
)

// ScriptVars holds the values substituted into post-create scripts.
type ScriptVars struct {
	Path     string // new worktree
	Branch   string
	Name     string // flattened worktree name
	MainRepo string // main checkout
}

// ShellQuote wraps s in single quotes, escaping embedded single quotes.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// SubstitutePlaceholders replaces {path}, {branch}, {name} and {main-repo}
// with shell-quoted values.
func SubstitutePlaceholders(script string, vars ScriptVars) string {
	r := strings.NewReplacer(
		"{path}", ShellQuote(vars.Path),
		"{branch}", ShellQuote(vars.Branch),
		"{name}", ShellQuote(vars.Name),
		"{main-repo}", ShellQuote(vars.MainRepo),
	)
	return r.Replace(script)
}
