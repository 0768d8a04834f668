package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/kwscan/internal/scanner"
)

// DirWatcher watches the direct entries of one directory with fsnotify.
// Subdirectories, chmod-only events and excluded names are ignored.
type DirWatcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	errors    chan error
	ready     chan struct{}
	opts      Options
	dir       string

	mu      sync.Mutex
	stopped bool
}

// New creates a directory watcher.
func New(opts Options) (*DirWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &DirWatcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize),
		errors:    make(chan error, 10),
		ready:     make(chan struct{}),
		opts:      opts,
	}, nil
}

// Start watches dir and blocks until ctx is done or Stop is called.
func (w *DirWatcher) Start(ctx context.Context, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.dir = absDir

	if err := w.fsWatcher.Add(absDir); err != nil {
		return fmt.Errorf("watch %s: %w", absDir, err)
	}
	close(w.ready)
	slog.Debug("watch_started", slog.String("dir", absDir))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// Ready is closed once the directory is registered with fsnotify.
func (w *DirWatcher) Ready() <-chan struct{} { return w.ready }

// Events returns debounced batches. It is closed by Stop.
func (w *DirWatcher) Events() <-chan []FileEvent { return w.debouncer.Output() }

// Errors returns non-fatal watcher errors.
func (w *DirWatcher) Errors() <-chan error { return w.errors }

// Stop releases the watcher. Safe to call multiple times.
func (w *DirWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}

func (w *DirWatcher) handle(event fsnotify.Event) {
	name, err := filepath.Rel(w.dir, event.Name)
	if err != nil || name == "." || filepath.Dir(name) != "." {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return
	}

	if slices.Contains(w.opts.ConfigNames, name) {
		if event.Op&fsnotify.Chmod == event.Op {
			return
		}
		w.debouncer.Add(FileEvent{Path: name, Operation: OpConfigChange, Timestamp: time.Now()})
		return
	}

	for _, pattern := range w.opts.Exclude {
		if scanner.MatchPattern(name, pattern) {
			return
		}
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod does not change content
		return
	}

	w.debouncer.Add(FileEvent{Path: name, Operation: op, Timestamp: time.Now()})
}

func (w *DirWatcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		slog.Warn("watch_error_dropped", slog.String("error", err.Error()))
	}
}
