// Package watcher re-runs extraction when class files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory tree for class file changes and reports the
// changed set after a quiet period.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher

	extension  string
	excludeDir func(path string) bool

	// Debouncing
	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// Callbacks
	onChange func(files []string)
	onError  func(error)
	runMu    sync.Mutex // serializes onChange

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceDelay sets the quiet period before a change set is reported.
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithExtension sets the file suffix that triggers a change.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		w.extension = ext
	}
}

// WithExcludeDir skips directories for which fn returns true.
func WithExcludeDir(fn func(path string) bool) Option {
	return func(w *Watcher) {
		w.excludeDir = fn
	}
}

// WithOnChange sets the callback receiving each debounced change set,
// sorted. Calls never overlap.
func WithOnChange(fn func(files []string)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback for watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a Watcher over every directory under root.
func New(root string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:          root,
		fsWatcher:     fsWatcher,
		extension:     ".class",
		debounceDelay: 500 * time.Millisecond,
		pendingFiles:  make(map[string]struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirs(root); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watcher: add directories: %w", err)
	}
	return w, nil
}

// addDirs recursively adds all directories under dir to the watcher.
func (w *Watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.excludeDir != nil && w.excludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.Start()
	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return w.Stop()
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher, drops pending changes and waits for a running
// onChange to return. It must not be called from onChange.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()

		w.runMu.Lock()
		w.runMu.Unlock()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// New directories are watched too; files already inside are picked up.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.excludeDir != nil && w.excludeDir(event.Name) {
				return
			}
			if err := w.addDirs(event.Name); err != nil && w.onError != nil {
				w.onError(err)
			}
			filepath.WalkDir(event.Name, func(path string, d fs.DirEntry, err error) error {
				if err == nil && !d.IsDir() && strings.HasSuffix(path, w.extension) {
					w.enqueue(path)
				}
				return nil
			})
			return
		}
	}

	if strings.HasSuffix(event.Name, w.extension) {
		w.enqueue(event.Name)
	}
}

// enqueue adds a file to the pending set and resets the debounce timer.
func (w *Watcher) enqueue(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pendingFiles[path] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flush)
}

// flush reports the pending files that still exist.
func (w *Watcher) flush() {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
			files = append(files, f)
		}
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 || w.onChange == nil {
		return
	}
	sort.Strings(files)

	w.runMu.Lock()
	defer w.runMu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	w.onChange(files)
}
