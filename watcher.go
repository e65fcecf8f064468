package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a file for changes with debouncing. It watches the
// parent directory so editors that save by rename or recreate are seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	log     *slog.Logger
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	timer   *time.Timer
}

func NewWatcher(delay time.Duration, log *slog.Logger) *Watcher {
	return &Watcher{
		delay: delay,
		log:   log,
		done:  make(chan struct{}),
	}
}

func (w *Watcher) Watch(path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					w.debounce(onChange)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watcher error", "error", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) debounce(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.delay, fn)
}

func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
