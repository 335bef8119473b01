package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

// DefaultReloadDebounce coalesces the burst of events an editor produces
// when saving a file.
const DefaultReloadDebounce = 100 * time.Millisecond

// ProfileWatcher reloads the gait profile when the config file changes.
// Valid profiles are handed to apply, which is expected to affect only the
// next session. Invalid files are logged and ignored.
type ProfileWatcher struct {
	path     string
	base     domain.Profile
	apply    func(domain.Profile) error
	logger   ports.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewProfileWatcher creates a watcher for path. base supplies the values
// for any gait section the file leaves out.
func NewProfileWatcher(path string, base domain.Profile, apply func(domain.Profile) error, logger ports.Logger) *ProfileWatcher {
	return &ProfileWatcher{
		path:     path,
		base:     base.Clone(),
		apply:    apply,
		logger:   logger,
		debounce: DefaultReloadDebounce,
	}
}

// Run watches the file's directory until ctx is done. The directory is
// watched rather than the file so that editors that replace the file on
// save are still seen.
func (w *ProfileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}
	w.logger.Info("watching config file", ports.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

func (w *ProfileWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		_ = w.Reload()
	})
}

func (w *ProfileWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Reload reads the file once and applies the profile if it is valid.
func (w *ProfileWatcher) Reload() error {
	p, err := LoadProfile(w.path, w.base)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping current profile",
			ports.String("path", w.path),
			ports.Err(err),
		)
		return err
	}
	if err := w.apply(p); err != nil {
		w.logger.Warn("config reload not applied", ports.Err(err))
		return err
	}
	w.logger.Info("gait profile reloaded; applies to the next session",
		ports.String("path", w.path),
	)
	return nil
}
