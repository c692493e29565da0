// Package static provides non-interactive terminal output components.
package static

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/ui/styles"
)

// WorktreeHeaders are the columns of the list table.
var WorktreeHeaders = []string{"", "NAME", "BRANCH", "STATUS", "COMMIT", "AGE"}

const maxMessage = 40

// RenderTable creates a formatted table with proper column alignment.
// No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	return t.String() + "\n"
}

// WorktreeRows builds one list row per worktree.
func WorktreeRows(wts []reconcile.Worktree, now time.Time) [][]string {
	rows := make([][]string, 0, len(wts))
	for _, wt := range wts {
		rows = append(rows, WorktreeRow(wt, now))
	}
	return rows
}

// WorktreeRow renders wt for the list table.
func WorktreeRow(wt reconcile.Worktree, now time.Time) []string {
	marker := ""
	if wt.IsCurrent {
		marker = styles.AccentStyle.Render(styles.CurrentMarker)
	}

	branch := wt.Branch
	if branch == "" {
		branch = styles.MutedStyle.Render("(detached)")
	}

	commit, age := "", ""
	if wt.LastCommit.Hash != "" {
		commit = shortHash(wt.LastCommit.Hash) + " " + truncate(wt.LastCommit.Message, maxMessage)
		age = Age(wt.LastCommit.Time, now)
	}

	return []string{marker, wt.Name, branch, Status(wt), commit, age}
}

// Status summarizes sync state, local changes and remote presence.
func Status(wt reconcile.Worktree) string {
	if wt.Prunable {
		return styles.ErrorStyle.Render("missing")
	}

	var parts []string
	if wt.SyncStatus.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("↑%d", wt.SyncStatus.Ahead))
	}
	if wt.SyncStatus.Behind > 0 {
		parts = append(parts, fmt.Sprintf("↓%d", wt.SyncStatus.Behind))
	}
	if wt.HasUncommittedChanges {
		parts = append(parts, styles.WarningStyle.Render("dirty"))
	}
	if !wt.RemoteExists && !wt.IsMain {
		parts = append(parts, styles.MutedStyle.Render("local"))
	}
	if len(parts) == 0 {
		return styles.SuccessStyle.Render(styles.CheckMark)
	}
	return strings.Join(parts, " ")
}

// Age formats the time since t in the largest whole unit.
func Age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
