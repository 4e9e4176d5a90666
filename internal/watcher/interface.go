package watcher

import "context"

// Watcher reports settled changes to files in one directory.
type Watcher interface {
	// Start blocks until ctx is done or the underlying watch fails.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is called with the path that changed.
type EventHandler func(ctx context.Context, filePath string) error

// Filter reports whether events for filePath should reach the handler.
type Filter func(filePath string) bool
