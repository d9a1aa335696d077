package expert

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/fwexpert/framework"
)

// StaleMarker flips an analyzed framework to stale.
type StaleMarker interface {
	MarkStale(ctx context.Context, ft framework.Type) error
}

// Watcher observes framework source trees and marks knowledge stale when
// the source changes. Events are debounced so one save burst produces a
// single transition.
type Watcher struct {
	marker   StaleMarker
	roots    map[string]framework.Type
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the given root-to-type mapping.
func NewWatcher(marker StaleMarker, roots map[string]framework.Type, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		marker:   marker,
		roots:    roots,
		debounce: debounce,
		logger:   logger,
	}
}

// Run watches until the context is cancelled. Watch registration
// failures on individual subdirectories are logged, not fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer fsw.Close()

	for root := range w.roots {
		if err := w.addRecursive(fsw, root); err != nil {
			w.logger.Warn("Failed to watch framework source", "root", root, "error", err)
		}
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	dirty := make(map[framework.Type]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			ft, matched := w.typeForPath(event.Name)
			if !matched {
				continue
			}
			// New subdirectories need their own watch registration.
			if event.Has(fsnotify.Create) {
				if err := w.addRecursive(fsw, event.Name); err == nil {
					w.logger.Debug("Watching new directory", "path", event.Name)
				}
			}
			dirty[ft] = true
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Filesystem watcher error", "error", err)

		case <-timer.C:
			for ft := range dirty {
				if err := w.marker.MarkStale(ctx, ft); err != nil {
					w.logger.Error("Failed to mark knowledge stale", "framework", ft, "error", err)
					continue
				}
				w.logger.Info("Framework source changed, knowledge marked stale", "framework", ft)
			}
			clear(dirty)
		}
	}
}

// addRecursive registers path and all directories beneath it. Non-dir
// paths are ignored.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == "__pycache__" || name == "node_modules" {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}

// typeForPath maps an event path back to the framework whose root
// contains it.
func (w *Watcher) typeForPath(path string) (framework.Type, bool) {
	for root, ft := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return ft, true
		}
	}
	return "", false
}
