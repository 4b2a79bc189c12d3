// Package watch regenerates packages when their Go sources change.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/xgx-io/xgx-errchain/internal/diag"
)

// Func regenerates one directory.
type Func func(ctx context.Context, dir string) error

// Options configure a Watcher.
type Options struct {
	// Debounce is how long a directory must be quiet before it is regenerated.
	Debounce time.Duration
	// Ignore reports whether a file base name never triggers regeneration,
	// e.g. the generated output itself.
	Ignore func(name string) bool
}

// Watcher runs a Func for every directory whose .go files settle after a
// change.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dirs     []string
	fn       Func
	opts     Options
	log      *zap.Logger
	pending  map[string]time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	runs     int
	lastErr  error
}

// New creates a Watcher for dirs. Nothing is watched until Start.
func New(dirs []string, fn Func, opts Options, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	if opts.Ignore == nil {
		opts.Ignore = func(string) bool { return false }
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, diag.Wrap(err, "create file watcher")
	}
	clean := make([]string, len(dirs))
	for i, d := range dirs {
		clean[i] = filepath.Clean(d)
	}
	return &Watcher{
		watcher: fw,
		dirs:    clean,
		fn:      fn,
		opts:    opts,
		log:     log.Named("watch"),
		pending: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start adds every directory and begins the event loop. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	for _, d := range w.dirs {
		if err := w.watcher.Add(d); err != nil {
			w.mu.Unlock()
			return diag.IO("watch", d, err)
		}
		w.log.Debug("watching", zap.String("dir", d))
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, waits for it, and releases the watcher. Safe to
// call more than once, and without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	w.stopOnce.Do(func() {
		close(w.stopCh)
		if wasRunning {
			<-w.doneCh
		}
		if err := w.watcher.Close(); err != nil {
			w.log.Warn("close watcher", zap.Error(err))
		}
	})
}

// Done is closed when the event loop exits, e.g. after ctx is cancelled.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

// Runs returns how many regenerations have completed, and the last error.
func (w *Watcher) Runs() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs, w.lastErr
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(max(w.opts.Debounce/4, time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
		case <-tick.C:
			w.flush(ctx)
		}
	}
}

// handle records a relevant event against its directory.
func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || w.opts.Ignore(name) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
	w.mu.Lock()
	w.pending[filepath.Dir(ev.Name)] = time.Now()
	w.mu.Unlock()
}

// flush regenerates every directory that has been quiet for the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for dir, at := range w.pending {
		if now.Sub(at) >= w.opts.Debounce {
			ready = append(ready, dir)
			delete(w.pending, dir)
		}
	}
	w.mu.Unlock()
	sort.Strings(ready)

	for _, dir := range ready {
		err := w.fn(ctx, dir)
		if err != nil {
			w.log.Error("regenerate failed", zap.String("dir", dir), zap.Error(err))
		} else {
			w.log.Info("regenerated", zap.String("dir", dir))
		}
		w.mu.Lock()
		w.runs++
		w.lastErr = err
		w.mu.Unlock()
	}
}
