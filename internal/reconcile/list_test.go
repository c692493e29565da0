package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestList_EnrichesWorktrees(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	a := filepath.Join(f.dir, ".worktrees", "feature-a")
	b := filepath.Join(f.dir, ".worktrees", "feature-b")
	f.addTree(t, "feature/a", a)
	f.addTree(t, "feature-b", b)
	f.remote["feature-b"] = true
	f.dirty[b] = true

	e, _ := newTestEngine(t, f)
	wts, warnings, err := e.List(context.Background(), Context{Cwd: filepath.Join(b, "src")}, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(wts) != 3 {
		t.Fatalf("got %d worktrees, want 3", len(wts))
	}

	paths := map[string]bool{}
	branches := map[string]bool{}
	for _, wt := range wts {
		if paths[wt.Path] || branches[wt.Branch] {
			t.Errorf("duplicate path or branch: %+v", wt)
		}
		paths[wt.Path] = true
		branches[wt.Branch] = true
	}

	main, fa, fb := wts[0], wts[1], wts[2]
	if !main.IsMain || main.SyncStatus.Ahead != 0 {
		t.Errorf("main entry = %+v, want main without sync status", main)
	}
	if fa.Name != "feature-a" || fa.RemoteExists || fa.IsCurrent {
		t.Errorf("feature/a = %+v, want name feature-a, remote gone, not current", fa)
	}
	if fa.SyncStatus.Ahead != 2 || fa.SyncStatus.Behind != 1 || fa.LastCommit.Hash == "" {
		t.Errorf("feature/a not enriched: %+v", fa)
	}
	if !fb.RemoteExists || !fb.HasUncommittedChanges || !fb.IsCurrent {
		t.Errorf("feature-b = %+v, want remote, dirty, current", fb)
	}
}

func TestList_DegradesPerWorktree(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	bad := filepath.Join(f.dir, ".worktrees", "bad")
	good := filepath.Join(f.dir, ".worktrees", "good")
	f.addTree(t, "bad", bad)
	f.addTree(t, "good", good)
	f.remoteErr["bad"] = errors.New("ref lookup failed")
	f.statusErr[bad] = errors.New("index locked")

	e, _ := newTestEngine(t, f)
	wts, warnings, err := e.List(context.Background(), Context{Cwd: f.dir}, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v, want degraded success", err)
	}
	if len(wts) != 3 {
		t.Fatalf("got %d worktrees, want 3", len(wts))
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want status + remote", warnings)
	}
	for _, w := range warnings {
		if w.Path != bad {
			t.Errorf("warning for %s, want only %s", w.Path, bad)
		}
	}
	if !wts[1].RemoteExists {
		t.Error("failed remote lookup must default to RemoteExists=true")
	}
	if wts[2].RemoteExists {
		t.Error("good worktree should report its missing remote")
	}
}

func TestList_MissingDirectoryWarns(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	gone := filepath.Join(t.TempDir(), "gone")
	f.worktrees = append(f.worktrees, gitWorktree(gone, "gone"))

	e, _ := newTestEngine(t, f)
	wts, warnings, err := e.List(context.Background(), Context{Cwd: f.dir}, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !wts[1].Prunable || !wts[1].RemoteExists {
		t.Errorf("List() = %+v, %v; want prunable entry with one warning", wts, warnings)
	}
}

func TestList_ThrottledFetch(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	e, _ := newTestEngine(t, f)
	th := &fakeThrottle{due: true}
	e.throttle = th
	ctx := context.Background()

	if _, _, err := e.List(ctx, Context{Cwd: f.dir}, ListOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.List(ctx, Context{Cwd: f.dir}, ListOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := f.count("Fetch"); got != 1 {
		t.Errorf("Fetch called %d times, want 1", got)
	}
	if th.recorded != 1 {
		t.Errorf("RecordFetch called %d times, want 1", th.recorded)
	}

	th.due = true
	if _, _, err := e.List(ctx, Context{Cwd: f.dir}, ListOptions{SkipFetch: true}); err != nil {
		t.Fatal(err)
	}
	if got := f.count("Fetch"); got != 1 {
		t.Errorf("SkipFetch still fetched (%d calls)", got)
	}
}

func TestList_FailedFetchIsNotRecorded(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	f.fetchErr = errors.New("network unreachable")
	e, _ := newTestEngine(t, f)
	th := &fakeThrottle{due: true}
	e.throttle = th

	if _, _, err := e.List(context.Background(), Context{Cwd: f.dir}, ListOptions{}); err != nil {
		t.Fatalf("List() error = %v, want fetch failure ignored", err)
	}
	if th.recorded != 0 {
		t.Error("failed fetch must not be recorded")
	}
}

func TestInfo_CurrentWorktree(t *testing.T) {
	t.Parallel()

	f := newFakeGit(t)
	a := filepath.Join(f.dir, ".worktrees", "feature-a")
	f.addTree(t, "feature/a", a)
	e, _ := newTestEngine(t, f)

	wt, _, err := e.Info(context.Background(), Context{Cwd: a}, "")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if wt.Branch != "feature/a" || wt.LastCommit.Message == "" {
		t.Errorf("Info() = %+v", wt)
	}

	if _, _, err := e.Info(context.Background(), Context{Cwd: t.TempDir()}, ""); err == nil {
		t.Error("Info() outside any worktree should fail")
	}
}
