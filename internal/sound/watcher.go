package sound

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"
)

// Watcher watches cue files for changes and invalidates the decode cache,
// so replaced sound files take effect without a daemon restart.
type Watcher struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	notifier *Notifier

	// Paths to watch with their last modification times
	watchedPaths map[string]time.Time

	pollInterval time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher over the notifier's resolved cue files.
func NewWatcher(notifier *Notifier, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		logger:       logger,
		notifier:     notifier,
		watchedPaths: make(map[string]time.Time),
		pollInterval: 2 * time.Second,
	}

	for _, path := range notifier.CuePaths() {
		if info, err := os.Stat(path); err == nil {
			w.watchedPaths[path] = info.ModTime()
		}
	}

	return w
}

// Start begins watching cue files for changes.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop(ctx)

	w.logger.Debug("cue watcher started", "files", len(w.watchedPaths), "interval", w.pollInterval)
}

// Stop stops the watcher and waits for the poll loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	paths := make(map[string]time.Time, len(w.watchedPaths))
	maps.Copy(paths, w.watchedPaths)
	w.mu.RUnlock()

	for path, lastModTime := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		modTime := info.ModTime()
		if modTime.After(lastModTime) {
			w.logger.Debug("cue file changed, invalidating cache", "path", path)

			w.mu.Lock()
			w.watchedPaths[path] = modTime
			w.mu.Unlock()

			w.notifier.Invalidate(path)
		}
	}
}
