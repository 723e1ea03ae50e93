package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval batches rapid successive writes (scanners rewrite the
// index in several chunks) into a single change notification.
const debounceInterval = 500 * time.Millisecond

// Watch monitors the index file at path and invokes onChange after each
// (debounced) modification. Blocks until the context is cancelled.
//
// The containing directory is watched rather than the file itself so that
// atomic rename-over-replace writes are observed.
func Watch(ctx context.Context, path string, onChange func()) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving index path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	debounce := time.NewTimer(debounceInterval)
	debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = true
			debounce.Reset(debounceInterval)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

		case <-debounce.C:
			if pending {
				pending = false
				onChange()
			}
		}
	}
}
