package config

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes on disk and invokes
// a callback with the freshly-parsed Config. Only the egress allow-lists
// and the log level are expected to change at runtime without a restart;
// callers are responsible for deciding which fields of the reloaded Config
// to actually apply.
type Watcher struct {
	path   string
	onLoad func(*Config)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher starts watching path for changes, invoking onLoad with each
// successfully parsed and validated reload. NewWatcher does not perform an
// initial load; call LoadConfig first to obtain the starting configuration.
func NewWatcher(path string, onLoad func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		onLoad:  onLoad,
		watcher: fw,
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()

	slog.Info("configuration watcher started", "path", path)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("configuration watcher error", "error", err)

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		slog.Error("configuration reload failed, keeping previous configuration",
			"path", w.path, "error", err)
		return
	}
	slog.Info("configuration reloaded", "path", w.path)
	w.onLoad(cfg)
}
