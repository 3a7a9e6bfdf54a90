// Package watch implements rx's optional directory watcher: when a
// watched file's (size, mtime) changes or the file disappears, its
// UnifiedFileIndex and trace cache entries are invalidated so the next
// scan rebuilds them instead of serving stale state.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/rx/internal/debug"
	"github.com/standardbeagle/rx/internal/lineindex"
	"github.com/standardbeagle/rx/internal/tracecache"
)

// Watcher monitors a set of directories and invalidates on-disk caches
// for files that change or disappear underneath it.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cacheDir  string
	debounce  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer

	onInvalidate func(path string)
}

// New creates a Watcher that invalidates cache entries under cacheDir.
func New(cacheDir string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:  fw,
		cacheDir: cacheDir,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// OnInvalidate registers a callback fired (best-effort, after debounce)
// whenever a path's caches have been invalidated.
func (w *Watcher) OnInvalidate(fn func(path string)) {
	w.onInvalidate = fn
}

// AddDir recursively registers watches on root and every subdirectory.
func (w *Watcher) AddDir(root string) error {
	visited := map[string]bool{}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true
		if err := w.watcher.Add(path); err != nil {
			debug.LogIndex("watch: failed to add %s: %v\n", path, err)
		}
		return nil
	})
}

// Start begins processing fsnotify events in the background.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
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
			debug.LogIndex("watch: fsnotify error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		if ev.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(ev.Name); err != nil {
					debug.LogIndex("watch: failed to add new dir %s: %v\n", ev.Name, err)
				}
			}
		}
		return
	}

	path := ev.Name
	w.mu.Lock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.invalidate(path) })
	w.mu.Unlock()
}

func (w *Watcher) invalidate(absPath string) {
	w.mu.Lock()
	delete(w.timers, absPath)
	w.mu.Unlock()

	indexPath := lineindex.CachePath(w.cacheDir, absPath)
	if err := os.Remove(indexPath); err != nil && !os.IsNotExist(err) {
		debug.LogCache("watch: failed to remove index cache for %s: %v\n", absPath, err)
	}

	if err := removeTraceCacheEntries(w.cacheDir, absPath); err != nil {
		debug.LogCache("watch: failed to remove trace cache for %s: %v\n", absPath, err)
	}

	debug.LogIndex("watch: invalidated caches for %s\n", absPath)
	if w.onInvalidate != nil {
		w.onInvalidate(absPath)
	}
}

// removeTraceCacheEntries deletes every trace cache record for absPath
// across all patterns_hash subdirectories, since the path hash alone
// identifies the file regardless of which pattern set produced a record.
func removeTraceCacheEntries(cacheDir, absPath string) error {
	root := filepath.Join(cacheDir, "trace_cache")
	prefix := tracecache.PathHash(absPath) + "_"

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if len(f.Name()) >= len(prefix) && f.Name()[:len(prefix)] == prefix {
				_ = os.Remove(filepath.Join(dir, f.Name()))
			}
		}
	}
	return nil
}
