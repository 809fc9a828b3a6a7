// watch.go — Hot reload of the template override directory.
package widgets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher invalidates a Renderer whenever an .html file in dir changes.
// Rapid saves are coalesced into one invalidation.
type Watcher struct {
	dir      string
	renderer *Renderer
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	reloads int
}

// NewWatcher returns a watcher for dir.
func NewWatcher(dir string, renderer *Renderer, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		renderer: renderer,
		logger:   logger,
		debounce: defaultDebounce,
	}
}

// Run watches until ctx is done. It returns an error only when the watch
// cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("widget watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("widget watcher: watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching widget templates", zap.String("dir", w.dir))

	var timer *time.Timer
	var fire <-chan time.Time
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
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("widget template changed", zap.String("file", filepath.Base(ev.Name)), zap.Stringer("op", ev.Op))
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
			w.logger.Warn("widget watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.renderer.Invalidate()
			w.mu.Lock()
			w.reloads++
			w.mu.Unlock()
		}
	}
}

// Reloads reports how many invalidations have fired.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".html") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
