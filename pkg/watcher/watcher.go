package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kgraph-dev/kgraph/pkg/ingest"
	"github.com/kgraph-dev/kgraph/pkg/logging"
)

// ChangeEvent represents a batch of changed record files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// RecordWatcher watches a records directory for new or updated
// extraction record files
type RecordWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
}

// NewRecordWatcher creates a new file system watcher over a records directory
func NewRecordWatcher(dir string) (*RecordWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &RecordWatcher{
		watcher: watcher,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for record file changes
func (rw *RecordWatcher) Start(ctx context.Context) error {
	if err := rw.watchRecordDirs(); err != nil {
		return err
	}

	logging.Info("started watching records directory", "path", rw.dir)

	go rw.processEvents(ctx)
	return nil
}

// watchRecordDirs registers the records directory and its subdirectories
func (rw *RecordWatcher) watchRecordDirs() error {
	dirs := make(map[string]bool)

	err := filepath.Walk(rw.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if info.IsDir() {
			dirs[path] = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk records directory: %w", err)
	}

	for dir := range dirs {
		if err := rw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
		}
	}

	logging.Info("monitoring directories for record files", "count", len(dirs))
	return nil
}

// processEvents batches file system events so one ingest pass covers a
// burst of writes
func (rw *RecordWatcher) processEvents(ctx context.Context) {
	var changed []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(changed) == 0 {
			return
		}
		rw.events <- ChangeEvent{
			Paths:     changed,
			Timestamp: time.Now(),
		}
		changed = nil
	}

	for {
		select {
		case <-ctx.Done():
			rw.watcher.Close()
			close(rw.events)
			return

		case event, ok := <-rw.watcher.Events:
			if !ok {
				close(rw.events)
				return
			}

			// New subdirectories need to be registered as they appear
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := rw.watcher.Add(event.Name); err != nil {
						logging.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if ingest.IsRecordFile(event.Name) {
				changed = append(changed, event.Name)
				flushTimer.Reset(100 * time.Millisecond)
			}

		case <-flushTimer.C:
			flush()

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				close(rw.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (rw *RecordWatcher) Events() <-chan ChangeEvent {
	return rw.events
}

// Stop stops the record watcher. The events channel closes once the
// processing goroutine drains.
func (rw *RecordWatcher) Stop() error {
	return rw.watcher.Close()
}
