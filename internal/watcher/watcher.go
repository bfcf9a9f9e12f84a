// Package watcher watches drop directories for signal bundle files and hands
// them to a callback once writes settle.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce delays processing so a bundle being written in several chunks is
// picked up once, after the last write.
const debounce = 500 * time.Millisecond

// Watcher watches directories for new bundle files.
type Watcher struct {
	roots      []string
	extensions []string
	onBundle   func(path string)
	logger     *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	done    chan struct{}
	started bool
}

// NewWatcher creates a watcher over roots. onBundle is called with the path of
// each settled file whose extension matches; empty extensions match all files.
func NewWatcher(roots, extensions []string, onBundle func(path string), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		roots:      roots,
		extensions: extensions,
		onBundle:   onBundle,
		logger:     logger,
		timers:     make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
}

// Start begins watching. Missing roots are created. It returns after the event
// loop is running; the loop stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("create watch directory %s: %w", root, err)
		}
		if err := fsw.Add(root); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	w.watcher = fsw
	w.started = true
	w.logger.Info("watching for bundles",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
	)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
			return
		}
		if w.matchExtension(ev.Name) {
			w.schedule(ev.Name)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancel(ev.Name)
	}
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.logger.Debug("bundle settled", zap.String("path", path))
		if w.onBundle != nil {
			w.onBundle(path)
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

// SyncExisting hands every matching file already present in the watched roots
// to the callback. Call after Start to pick up bundles dropped while offline.
func (w *Watcher) SyncExisting() {
	for _, root := range w.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			w.logger.Warn("read watch directory failed", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if w.matchExtension(path) && w.onBundle != nil {
				w.onBundle(path)
			}
		}
	}
}

// Stop stops the watcher and cancels pending timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	close(w.done)
}
