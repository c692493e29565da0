package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/raphi011/vecna/internal/reconcile"
)

func TestAppendIgnore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		existing  *string
		wantAdded bool
		want      string
	}{
		{"missing file", nil, true, ".worktrees\n"},
		{"no trailing newline", ptr("node_modules"), true, "node_modules\n.worktrees\n"},
		{"already present", ptr("dist\n.worktrees\n"), false, "dist\n.worktrees\n"},
		{"present with slashes", ptr("/.worktrees/\n"), false, "/.worktrees/\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			added, err := appendIgnore(path, ".worktrees")
			if err != nil {
				t.Fatalf("appendIgnore() error = %v", err)
			}
			if added != tt.wantAdded {
				t.Errorf("added = %v, want %v", added, tt.wantAdded)
			}
			got, _ := os.ReadFile(path)
			if string(got) != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestEditorCommand(t *testing.T) {
	found := func(name string) func(string) (string, error) {
		return func(e string) (string, error) {
			if e == name {
				return "/usr/bin/" + e, nil
			}
			return "", errors.New("not found")
		}
	}

	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")

	if got := editorCommand("cursor -n", "code", found("vim")); !slices.Equal(got, []string{"cursor", "-n"}) {
		t.Errorf("project preference should win, got %v", got)
	}
	if got := editorCommand("", "code --wait", found("vim")); !slices.Equal(got, []string{"code", "--wait"}) {
		t.Errorf("configured editor should win, got %v", got)
	}
	if got := editorCommand("", "", found("subl")); !slices.Equal(got, []string{"subl"}) {
		t.Errorf("fallback lookup = %v, want subl", got)
	}
	if got := editorCommand("", "", found("none")); got != nil {
		t.Errorf("no editor available, got %v", got)
	}

	t.Setenv("EDITOR", "nvim")
	if got := editorCommand("", "", found("code")); !slices.Equal(got, []string{"nvim"}) {
		t.Errorf("$EDITOR should beat PATH lookup, got %v", got)
	}
}

func TestPrintTidyPlan(t *testing.T) {
	t.Parallel()

	plan := &reconcile.TidyPlan{
		MainBranch: "main",
		WorktreesToRemove: []reconcile.Removal{
			{Kind: reconcile.ResetRemoval, Name: "feature-a", Branch: "feature-a", Path: "/trees/feature-a"},
		},
		BranchesToDelete: []string{"feature-a", "old"},
		Skipped:          []reconcile.Skip{{Branch: "wip", Reason: "backs the current worktree"}},
	}

	var buf bytes.Buffer
	printTidyPlan(&buf, plan)
	out := buf.String()
	for _, want := range []string{"feature-a", "/trees/feature-a", "discarded", "old", "wip", "current worktree"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintCleanReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printCleanReport(&buf, &reconcile.CleanReport{
		StaleMetadata: []string{"ghost"},
		Unregistered:  []string{"/trees/stray"},
	})
	if !strings.Contains(buf.String(), "stale") || !strings.Contains(buf.String(), "/trees/stray") {
		t.Errorf("report = %q", buf.String())
	}
}
