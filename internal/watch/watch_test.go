package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/rx/internal/lineindex"
	"github.com/standardbeagle/rx/internal/tracecache"
)

func TestInvalidate_RemovesIndexAndTraceCache(t *testing.T) {
	cacheDir := t.TempDir()
	absPath := filepath.Join(t.TempDir(), "app.log")

	indexPath := lineindex.CachePath(cacheDir, absPath)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(indexPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	key := tracecache.Key{AbsPath: absPath, Patterns: []string{"foo"}}
	tracePath := tracecache.Path(cacheDir, key)
	if err := tracecache.Save(tracePath, &tracecache.Record{Version: tracecache.CurrentVersion}); err != nil {
		t.Fatal(err)
	}

	w, err := New(cacheDir, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.invalidate(absPath)

	if _, err := os.Stat(indexPath); !os.IsNotExist(err) {
		t.Fatalf("expected index cache to be removed, stat err=%v", err)
	}
	if _, err := os.Stat(tracePath); !os.IsNotExist(err) {
		t.Fatalf("expected trace cache to be removed, stat err=%v", err)
	}
}

func TestInvalidate_CallsOnInvalidateCallback(t *testing.T) {
	cacheDir := t.TempDir()
	absPath := filepath.Join(t.TempDir(), "app.log")

	w, err := New(cacheDir, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var got string
	w.OnInvalidate(func(path string) { got = path })
	w.invalidate(absPath)

	if got != absPath {
		t.Fatalf("expected callback with %s, got %s", absPath, got)
	}
}

func TestInvalidate_MissingCacheFilesAreNotAnError(t *testing.T) {
	cacheDir := t.TempDir()
	w, err := New(cacheDir, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.invalidate(filepath.Join(cacheDir, "never-existed.log"))
}
