package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

type implWatcher struct {
	dir     string
	filter  Filter
	handler EventHandler
	logger  logger.Logger
	watcher *fsnotify.Watcher
	settle  time.Duration
}

// Start blocks dispatching matching events to the handler until ctx is done.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&relevantOps == 0 || !w.filter(event.Name) {
				continue
			}

			w.logger.Debug(ctx, "Change detected: %s (%s)", event.Name, event.Op)

			if !w.wait(ctx) {
				return ctx.Err()
			}
			w.drain()

			if err := w.handler(ctx, event.Name); err != nil {
				w.logger.Error(ctx, "Failed to handle %s: %v", event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// wait sleeps for the settle period unless ctx ends first.
func (w *implWatcher) wait(ctx context.Context) bool {
	timer := time.NewTimer(w.settle)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain drops events queued during the settle period so a burst of writes
// triggers one handler call.
func (w *implWatcher) drain() {
	for {
		select {
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
