package state

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/litescript/ls-orrery/internal/bodies"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// WatchCatalog reloads the catalog file at path whenever it changes, until
// ctx is done. A file that fails to parse or validate is rejected and the
// current catalog stays in place.
func (m *Manager) WatchCatalog(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic-rename saves are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	m.logger.Info("watching catalog %s", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if catalogChanged(ev, path) {
				debounce = time.After(reloadDebounce)
			}
		case <-debounce:
			debounce = nil
			_ = m.ReloadCatalog(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("catalog watcher: %v", err)
		}
	}
}

// catalogChanged reports whether ev means path has new content.
func catalogChanged(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// ReloadCatalog loads and validates path and, on success, replaces the
// registry. On failure the current registry is kept and the error recorded.
func (m *Manager) ReloadCatalog(path string) error {
	reg, err := bodies.LoadFile(path)
	if err == nil {
		err = m.ReplaceCatalog(reg)
	}
	if err != nil {
		m.logger.Error("catalog %s rejected: %v", path, err)
		m.mu.Lock()
		m.lastError = err
		m.addEvent(Event{Type: EventCatalogRejected, Timestamp: time.Now(), Detail: err.Error()})
		m.mu.Unlock()
		return err
	}
	m.logger.Info("catalog %s reloaded: %d bodies", path, reg.Len())
	return nil
}
