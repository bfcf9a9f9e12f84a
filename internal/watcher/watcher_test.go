package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func TestSyncExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var mu sync.Mutex
	var seen []string
	w := NewWatcher([]string{dir}, []string{".json"}, func(path string) {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
	}, nil)

	w.SyncExisting()

	sort.Strings(seen)
	if len(seen) != 2 || seen[0] != "a.json" || seen[1] != "b.json" {
		t.Errorf("got %v, want [a.json b.json]", seen)
	}
}

func TestMatchExtension(t *testing.T) {
	w := NewWatcher(nil, []string{".json"}, nil, nil)
	if !w.matchExtension("/tmp/bundle.JSON") {
		t.Error("extension match should be case insensitive")
	}
	if w.matchExtension("/tmp/bundle.yaml") {
		t.Error("non-matching extension accepted")
	}
	all := NewWatcher(nil, nil, nil, nil)
	if !all.matchExtension("/tmp/anything.xyz") {
		t.Error("empty extension list should match everything")
	}
}

func TestStartCreatesMissingRoots(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drop")
	w := NewWatcher([]string{root}, []string{".json"}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
}

func TestStopIdempotentStart(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, nil, nil)
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Second start is a no-op while running.
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	w.Stop()
}
