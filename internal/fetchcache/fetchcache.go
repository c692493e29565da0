// Package fetchcache throttles remote fetches per repository.
//
// Each repository gets one small file under <configdir>/cache holding the
// unix-millisecond time of its last successful fetch. Any failure to read
// or parse that file counts as "never fetched", so the cache can only make
// vecna fetch more often, never skip a fetch it needs.
package fetchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/raphi011/vecna/internal/storage"
)

// DefaultWindow is the minimum time between two fetches of one repository.
const DefaultWindow = 15 * time.Minute

// Throttle decides whether a repository is due for a fetch.
type Throttle struct {
	// Dir holds the timestamp files.
	Dir string
	// Window is the minimum time between fetches; DefaultWindow when zero.
	Window time.Duration
	// Now returns the current time; time.Now when nil.
	Now func() time.Time
}

// New returns a Throttle storing its files in <configdir>/cache.
func New(window time.Duration) (*Throttle, error) {
	dir, err := storage.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	return &Throttle{Dir: filepath.Join(dir, "cache"), Window: window}, nil
}

// ShouldFetch reports whether repo has not been fetched within the window.
func (t *Throttle) ShouldFetch(repo string) bool {
	data, err := os.ReadFile(t.path(repo))
	if err != nil {
		return true
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return true
	}
	// a timestamp from the future means the clock moved; fetch rather
	// than stay throttled until it catches up
	elapsed := t.now().Sub(time.UnixMilli(ms))
	return elapsed < 0 || elapsed >= t.window()
}

// RecordFetch stores the current time as repo's last fetch. It never
// waits: when another process holds the entry's lock file it is already
// recording a fetch, and the write is skipped.
func (t *Throttle) RecordFetch(repo string) error {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("create fetch cache directory: %w", err)
	}

	path := t.path(repo)
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock fetch cache: %w", err)
	}
	if !locked {
		return nil
	}
	defer fl.Unlock()

	content := []byte(strconv.FormatInt(t.now().UnixMilli(), 10))
	if err := storage.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("write fetch cache: %w", err)
	}
	return nil
}

// path returns the timestamp file for repo. The name is derived from a
// hash of the absolute path so distinct checkouts never share an entry.
func (t *Throttle) path(repo string) string {
	if abs, err := filepath.Abs(repo); err == nil {
		repo = abs
	}
	sum := sha256.Sum256([]byte(repo))
	return filepath.Join(t.Dir, "last-fetch-"+hex.EncodeToString(sum[:])[:16])
}

func (t *Throttle) window() time.Duration {
	if t.Window <= 0 {
		return DefaultWindow
	}
	return t.Window
}

func (t *Throttle) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}
