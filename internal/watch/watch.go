// pattern: Imperative Shell

// Package watch notifies a caller when the contents of a registry root change.
package watch

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"envtrack/internal/logging"
)

const (
	debounceInterval = 100 * time.Millisecond
	pollInterval     = 2 * time.Second
)

// Watcher observes a single directory.
type Watcher struct {
	root    string
	logger  *logging.ScopedLogger
	watcher *fsnotify.Watcher

	debounce time.Duration
	poll     time.Duration
}

// New creates a watcher for root. The directory must exist.
func New(root string, logger *logging.ScopedLogger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		logger:   logger,
		watcher:  watcher,
		debounce: debounceInterval,
		poll:     pollInterval,
	}, nil
}

// Run calls onChange after each burst of changes under the root.
// It returns when the context is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	// Polling safeguard for filesystems without inotify support
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	last := w.snapshot()

	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.logger.Debug("registry event", "name", event.Name, "op", event.Op.String())
			schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ticker.C:
			if current := w.snapshot(); !slices.Equal(current, last) {
				last = current
				onChange()
			}

		case <-fire:
			fire = nil
			last = w.snapshot()
			onChange()
		}
	}
}

// snapshot lists entry names in the root. Unreadable roots read as empty.
func (w *Watcher) snapshot() []string {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
