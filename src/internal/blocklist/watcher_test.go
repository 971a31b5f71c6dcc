package blocklist

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maksimkurb/tinydnsproxy/src/internal/testutil"
)

func TestWatcher_NotifiesOnWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "list.txt", []byte("a.example\n"))

	var changes atomic.Int32
	w, err := NewWatcher([]string{path}, func() { changes.Add(1) })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// unrelated files in the same directory are ignored
	testutil.WriteFile(t, dir, "other.txt", []byte("x\n"))
	time.Sleep(50 * time.Millisecond)
	if changes.Load() != 0 {
		t.Errorf("Expected unrelated file to be ignored, got %d changes", changes.Load())
	}

	if err := os.WriteFile(path, []byte("a.example\nb.example\n"), 0644); err != nil {
		t.Fatalf("Failed to update list: %v", err)
	}
	waitFor(t, "change notification", func() bool { return changes.Load() > 0 })
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "list.txt")}, func() {})
	if err == nil {
		t.Error("Expected error for a missing directory")
	}
}
