package messages

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nvandessel/pixelplant/internal/logging"
)

// DefaultWatchDebounce batches the burst of events a single editor save
// produces.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher calls a reload function whenever a custom message file changes on
// disk.
type Watcher struct {
	path   string
	reload func(path string)
	logger *slog.Logger

	// Debounce is the quiet period after the last event before reload runs.
	Debounce time.Duration
}

// NewWatcher returns a watcher for path. reload runs on the watcher's
// goroutine.
func NewWatcher(path string, reload func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		logger:   logger,
		Debounce: DefaultWatchDebounce,
	}
}

// Run watches until ctx is done. The parent directory is watched so that
// editors which save by renaming a temp file over the original are followed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Debug("watching message file", "path", w.path)

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

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("message file changed", "path", w.path)
			w.reload(w.path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("message file watcher error", "error", err)
		}
	}
}
