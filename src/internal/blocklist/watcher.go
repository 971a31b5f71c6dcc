package blocklist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
)

// Watcher calls onChange when one of the watched files is written, created,
// renamed or removed. Parent directories are watched instead of the files
// themselves, so files that are replaced atomically or appear later are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	onChange func()
}

func NewWatcher(paths []string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		files:    make(map[string]struct{}),
		onChange: onChange,
	}

	dirs := make(map[string]struct{})
	for _, path := range paths {
		path = filepath.Clean(path)
		w.files[path] = struct{}{}
		dirs[filepath.Dir(path)] = struct{}{}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		log.Debugf("Watching %s for block list changes", dir)
	}

	return w, nil
}

// Run processes events until ctx is done and closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.isRelevantEvent(event) {
				log.Infof("Block list file changed: %s", event)
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Block list watcher error: %v", err)
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
