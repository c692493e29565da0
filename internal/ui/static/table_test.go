package static

import (
	"strings"
	"testing"
	"time"

	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/reconcile"
)

func TestWorktreeRow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	wt := reconcile.Worktree{
		Worktree:     git.Worktree{Path: "/trees/feature-x", Branch: "feature/x"},
		Name:         "feature-x",
		RemoteExists: true,
		LastCommit: git.Commit{
			Hash:    "abc1234def5678",
			Message: "add login form",
			Time:    now.Add(-3 * time.Hour),
		},
	}

	row := WorktreeRow(wt, now)
	if len(row) != len(WorktreeHeaders) {
		t.Fatalf("row has %d columns, want %d", len(row), len(WorktreeHeaders))
	}
	if row[0] != "" {
		t.Errorf("marker = %q, want empty for a non-current worktree", row[0])
	}
	if row[1] != "feature-x" || row[2] != "feature/x" {
		t.Errorf("name/branch = %q/%q", row[1], row[2])
	}
	if row[4] != "abc1234 add login form" {
		t.Errorf("commit = %q", row[4])
	}
	if row[5] != "3 hours ago" {
		t.Errorf("age = %q", row[5])
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wt   reconcile.Worktree
		want []string
	}{
		{
			name: "ahead and behind",
			wt:   reconcile.Worktree{RemoteExists: true, SyncStatus: git.SyncStatus{Ahead: 2, Behind: 1}},
			want: []string{"↑2", "↓1"},
		},
		{
			name: "dirty local branch",
			wt:   reconcile.Worktree{HasUncommittedChanges: true},
			want: []string{"dirty", "local"},
		},
		{
			name: "missing directory",
			wt:   reconcile.Worktree{Worktree: git.Worktree{Prunable: true}},
			want: []string{"missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Status(tt.wt)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Status() = %q, want it to contain %q", got, w)
				}
			}
		})
	}
}

func TestAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Hour, "5 hours ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{60 * 24 * time.Hour, "2 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		if got := Age(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("Age(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	if got := RenderTable(WorktreeHeaders, nil); got != "" {
		t.Errorf("RenderTable() with no rows = %q, want empty", got)
	}
	out := RenderTable([]string{"NAME", "BRANCH"}, [][]string{{"feature-x", "feature/x"}})
	if !strings.Contains(out, "feature-x") || !strings.HasSuffix(out, "\n") {
		t.Errorf("RenderTable() = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate() = %q", got)
	}
}
