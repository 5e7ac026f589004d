package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Manager watches the config file and exposes a change notification channel
// the event loop selects on. Notifications are coalesced: a burst of editor
// writes produces a single reload.
type Manager struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan struct{}
	logger  *slog.Logger
}

// NewManager starts watching the directory containing path. Watching the
// directory rather than the file survives the rename-over-replace pattern
// editors and package managers use.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	m := &Manager{
		path:    path,
		watcher: watcher,
		changes: make(chan struct{}, 1),
		logger:  logger,
	}
	go m.run()
	return m, nil
}

func (m *Manager) run() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != m.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case m.changes <- struct{}{}:
			default:
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher", "error", err)
		}
	}
}

// Changes signals that the config file was modified.
func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

// Load re-reads the config file.
func (m *Manager) Load() (Config, error) {
	return Load(m.path)
}

func (m *Manager) Close() error {
	return m.watcher.Close()
}
