package drift

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-checks an environment when files in its publish directory
// change. Events are debounced per environment so a burst of writes (temp
// file, rename) results in a single check.
type Watcher struct {
	detector *Detector
	root     string
	interval time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// onCheck is called after each triggered check.
	onCheck func(Report)
}

// NewWatcher creates a watcher for the publish root directory.
func NewWatcher(detector *Detector, root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		detector: detector,
		root:     root,
		interval: debounce,
		watcher:  fw,
		logger:   slog.Default().With("component", "drift.watcher"),
		timers:   map[string]*time.Timer{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// OnCheck registers a callback invoked with each triggered report.
func (w *Watcher) OnCheck(fn func(Report)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onCheck = fn
}

// Watch blocks until ctx is cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer close(w.doneCh)

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("failed to create publish root: %w", err)
	}
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addEnvironmentDir(filepath.Join(w.root, e.Name()))
		}
	}

	w.logger.Info("drift watcher started", "root", w.root, "debounce_ms", w.interval.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("drift watcher error", "error", err)
		}
	}
}

func (w *Watcher) addEnvironmentDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch environment directory", "path", dir, "error", err)
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	envID := parts[0]
	if strings.HasPrefix(envID, ".") {
		return
	}
	if len(parts) == 1 && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addEnvironmentDir(event.Name)
		}
	}
	if len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], ".") {
		// temp files of atomic writes
		return
	}

	w.logger.Debug("publish file event", "environment", envID, "path", event.Name, "op", event.Op.String())
	w.trigger(ctx, envID)
}

// trigger schedules a check of envID after the debounce interval, resetting
// any pending timer for the same environment.
func (w *Watcher) trigger(ctx context.Context, envID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[envID]; ok {
		t.Stop()
	}
	w.timers[envID] = time.AfterFunc(w.interval, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		report, err := w.detector.Check(ctx, envID)
		if err != nil {
			w.logger.Debug("drift check skipped", "environment", envID, "error", err)
			return
		}
		w.mu.Lock()
		cb := w.onCheck
		w.mu.Unlock()
		if cb != nil {
			cb(report)
		}
	})
}

// Stop stops the watcher and cancels pending checks.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	for _, t := range w.timers {
		t.Stop()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}
