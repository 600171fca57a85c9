// Package watch reloads a PHP literal file whenever it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	phpfile "github.com/goliatone/go-phpfile"
)

// DefaultDebounce batches the burst of events editors emit for one save.
const DefaultDebounce = 100 * time.Millisecond

// Handler receives every successfully reloaded value.
type Handler func(phpfile.Value)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event before
// reloading. Non-positive values reload on every event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithErrorHandler receives reload and watch errors. Without one they are
// dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithFileOptions configures the phpfile.File used for reloads.
func WithFileOptions(opts ...phpfile.Option) Option {
	return func(w *Watcher) {
		w.fileOpts = append(w.fileOpts, opts...)
	}
}

// Watcher watches the directory holding one file, so replacements made by
// editors and atomic renames are picked up.
type Watcher struct {
	path     string
	onChange Handler
	onError  func(error)
	debounce time.Duration
	fileOpts []phpfile.Option

	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	value    phpfile.Value
	hasValue bool
	running  bool
	runCtx   context.Context
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New returns a Watcher for path. onChange may be nil when callers only
// poll Value.
func New(path string, onChange Handler, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, &phpfile.PathError{Op: "watch", Err: phpfile.ErrEmptyPath}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start loads the file once when it exists, then watches for changes in a
// goroutine until ctx is done or Stop is called. Starting a running watcher
// is a no-op; once its context is done it can be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	for w.running {
		if w.runCtx.Err() == nil {
			w.mu.Unlock()
			return nil
		}
		doneCh := w.doneCh
		w.mu.Unlock()
		<-doneCh
		w.mu.Lock()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("watch: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch: %w", err)
	}
	w.watcher = fsw
	w.running = true
	w.runCtx = ctx
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if phpfile.New(w.path, w.fileOpts...).Exists() {
		w.reload()
	}

	go w.run(ctx, fsw, w.stopCh, w.doneCh)
	return nil
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh, fsw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	return fsw.Close()
}

// Value returns the last successfully loaded value.
func (w *Watcher) Value() (phpfile.Value, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return phpfile.Clone(w.value), w.hasValue
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.release(doneCh)
			if err := fsw.Close(); err != nil {
				w.fail(fmt.Errorf("watch: %w", err))
			}
			return
		case <-stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if w.debounce <= 0 {
				w.reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.reload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.fail(fmt.Errorf("watch: %w", err))
		}
	}
}

// release marks the loop owning doneCh as stopped, unless Stop or a newer
// Start got there first.
func (w *Watcher) release(doneCh chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.doneCh == doneCh {
		w.running = false
		w.watcher = nil
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	file := phpfile.New(w.path, w.fileOpts...)
	if err := file.Load(); err != nil {
		// a rename without a replacement leaves nothing to load yet
		if errors.Is(err, phpfile.ErrFileNotExists) {
			return
		}
		w.fail(err)
		return
	}
	value, err := file.Get()
	if err != nil {
		w.fail(err)
		return
	}

	w.mu.Lock()
	w.value = value
	w.hasValue = true
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(phpfile.Clone(value))
	}
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
