package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls a refresh function whenever the configuration file
// changes. Bursts of events are coalesced into a single call.
//
// The parent directory is watched rather than the file itself, since
// editors commonly save by writing a temp file and renaming it over the
// original, which would drop a watch on the old inode.
type Watcher struct {
	path     string
	debounce time.Duration
	refresh  func(context.Context) error

	readyOnce sync.Once
	ready     chan struct{}
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, refresh func(context.Context) error) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		refresh:  refresh,
		ready:    make(chan struct{}),
	}
}

// SetDebounce changes the settle delay. Non-positive values are ignored.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Ready is closed once the watch is established.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Refresh errors are logged and do
// not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.readyOnce.Do(func() { close(w.ready) })
	logger.Debug("config: watching %s", w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watcher error: %v", err)

		case <-fire:
			fire = nil
			logger.Info("config: %s changed, reloading", w.path)
			if err := w.refresh(ctx); err != nil {
				logger.Warn("config: reload failed: %v", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
