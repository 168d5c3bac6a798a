package project

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/types"
)

// DefaultDebounce is the quiet period before queued events are applied
const DefaultDebounce = 100 * time.Millisecond

// ChangeKind tells whether an entry joined or left the file set
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	if k == Added {
		return "added"
	}
	return "removed"
}

// Change is one file set entry that appeared or disappeared
type Change struct {
	Kind ChangeKind
	Path string
}

// Watcher keeps a FileSet in sync with the file system. Events are queued and
// applied together once no new event arrived for the debounce period.
type Watcher struct {
	set      *FileSet
	watcher  *fsnotify.Watcher
	debounce time.Duration

	onChange func([]Change)
	onError  func(error)

	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher for set. A debounce of zero selects
// DefaultDebounce.
func NewWatcher(set *FileSet, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		set:      set,
		watcher:  fw,
		debounce: debounce,
		stop:     make(chan struct{}),
	}, nil
}

// OnChange sets the callback receiving each applied batch. It must be set
// before Start.
func (w *Watcher) OnChange(fn func([]Change)) { w.onChange = fn }

// OnError sets the callback receiving watch errors. It must be set before
// Start; without one errors are logged.
func (w *Watcher) OnError(fn func(error)) { w.onError = fn }

// Start watches every directory of the file set
func (w *Watcher) Start() error {
	for _, entry := range w.set.Snapshot() {
		if !types.IsDirEntry(entry) {
			continue
		}
		if err := w.watcher.Add(filepath.Clean(entry)); err != nil {
			w.watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", entry, err)
		}
	}

	w.wg.Add(1)
	go w.loop()

	debug.LogProject("watching %s\n", w.set.Root())
	return nil
}

// Stop ends watching and waits for the event loop to exit. Events still
// queued are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debug.LogProject("event %v %s\n", event.Op, event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)

		case <-timer.C:
			w.apply(pending)
			pending = make(map[string]struct{})
		}
	}
}

// apply reconciles queued paths with the file system
func (w *Watcher) apply(pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var changes []Change
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			for _, entry := range w.set.Remove(path) {
				changes = append(changes, Change{Kind: Removed, Path: entry})
			}
			continue
		}

		for _, entry := range w.set.Add(path) {
			changes = append(changes, Change{Kind: Added, Path: entry})
			if types.IsDirEntry(entry) {
				if err := w.watcher.Add(filepath.Clean(entry)); err != nil {
					w.reportError(fmt.Errorf("failed to watch %s: %w", entry, err))
				}
			}
		}
	}

	if len(changes) == 0 || w.onChange == nil {
		return
	}
	w.onChange(changes)
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	log.Printf("Project watcher error: %v", err)
}
