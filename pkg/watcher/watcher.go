package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/discovery"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// consecutive fsnotify errors, reset by any delivered event
	failures atomic.Int32
}

// New creates a file system watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 100
	}
	if cfg.Filter == nil {
		cfg.Filter = discovery.IsLogFile
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, cfg.BufferSize),
		errors:         make(chan error, 10),
		stopChan:       make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return ErrAlreadyStarted
	}

	roots := make([]string, 0, len(paths))
	for _, path := range paths {
		expanded := discovery.ExpandHome(path)
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				w.logger.Warn("watch path does not exist, skipping", "path", expanded)
				continue
			}
			return fmt.Errorf("failed to stat path %s: %w", expanded, err)
		}
		roots = append(roots, expanded)
	}
	if len(roots) == 0 {
		return ErrInvalidPath
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("failed to add path %s: %w", root, err)
		}
	}

	w.running = true
	w.stopChan = make(chan struct{})
	go w.processEvents(ctx, w.stopChan)

	w.logger.Info("watcher started", "paths", roots)
	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false
	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = map[string]*time.Timer{}
	w.debounceMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	// Senders check closed under the read lock, so no send can race these.
	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *watcher) processEvents(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

func (w *watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files dropped into the new directory before the watch was
			// added are picked up by the next discovery pass.
			if addErr := w.addRecursive(event.Name); addErr != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", addErr)
			}
			return
		}
	}

	if !w.config.Filter(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	case event.Has(fsnotify.Chmod):
		op = OpChmod
	default:
		return
	}

	w.debounce(Event{Path: event.Name, Op: op, Timestamp: time.Now()})
}

// debounce emits the latest event of a path once no further event for it
// arrived within DebounceInterval.
func (w *watcher) debounce(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[event.Path]; exists {
		timer.Stop()
	}

	w.debounceTimers[event.Path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, event.Path)
		w.debounceMu.Unlock()

		w.emit(event)
	})
}

func (w *watcher) emit(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	select {
	case w.events <- event:
		w.failures.Store(0)
	default:
		w.logger.Warn("event channel full, dropping event", "path", event.Path)
	}
}

func (w *watcher) handleError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	failures := int(w.failures.Add(1))
	w.logger.Error("fsnotify error", "error", err, "failure_count", failures)

	if failures >= w.config.CircuitBreakerThreshold {
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// addRecursive watches dir and every visible subdirectory.
func (w *watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("error walking path", "path", path, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && entry.Name()[0] == '.' {
			return fs.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			if path == dir {
				return addErr
			}
			w.logger.Warn("failed to add subdirectory", "path", path, "error", addErr)
			return nil
		}
		w.logger.Debug("added watch path", "path", path)
		return nil
	})
}
