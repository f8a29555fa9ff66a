package waveconfig

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads every manifest in a directory whenever a file in it
// changes, publishing the new merged set to subscribers.
type Watcher struct {
	dir      string
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
	mu       sync.RWMutex
	current  map[string]Manifest
	onReload []func(map[string]Manifest)
	done     chan struct{}
}

// NewWatcher performs the initial load and starts watching dir for
// changes. Call Close to stop watching.
func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	initial, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		dir:     dir,
		logger:  logger,
		fsw:     fsw,
		current: initial,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			reloaded, err := LoadDir(w.dir)
			if err != nil {
				w.logger.Warn("wave manifest reload failed, keeping previous configuration", zap.Error(err))
				continue
			}
			w.mu.Lock()
			w.current = reloaded
			subscribers := append([]func(map[string]Manifest){}, w.onReload...)
			w.mu.Unlock()
			for _, fn := range subscribers {
				fn(reloaded)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("wave manifest watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// Current returns the most recently loaded manifest set.
func (w *Watcher) Current() map[string]Manifest {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]Manifest, len(w.current))
	for k, v := range w.current {
		out[k] = v
	}
	return out
}

// OnReload registers a callback invoked with the new manifest set after
// every successful reload.
func (w *Watcher) OnReload(fn func(map[string]Manifest)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
