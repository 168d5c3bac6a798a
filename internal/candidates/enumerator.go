// Package candidates builds the ordered list of items a search session scans.
package candidates

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/fif/internal/debug"
	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/filetype"
	"github.com/standardbeagle/fif/internal/filter"
	"github.com/standardbeagle/fif/internal/types"
)

// Enumerator produces candidates for a scope. The project file set and the
// open buffer index are passed in explicitly; both may be empty.
type Enumerator struct {
	project  types.ProjectFileSet
	buffers  *types.BufferIndex
	detector *filetype.Detector
	observer types.Observer

	contextLines int
}

// NewEnumerator creates an enumerator over the given collaborators
func NewEnumerator(project types.ProjectFileSet, buffers *types.BufferIndex, observer types.Observer) *Enumerator {
	if observer == nil {
		observer = types.NopObserver
	}
	return &Enumerator{
		project:      project,
		buffers:      buffers,
		detector:     filetype.NewDetector(),
		observer:     observer,
		contextLines: types.DefaultContextLines,
	}
}

// SetContextLines overrides the context line budget stamped on candidates
func (e *Enumerator) SetContextLines(n int) {
	if n > 0 {
		e.contextLines = n
	}
}

// Enumerate returns the candidates of scope accepted by f, deduplicated by
// resolved real path with the first occurrence kept. Unreadable directories
// are reported to the observer and skipped.
func (e *Enumerator) Enumerate(scope types.Scope, f *filter.Filter) []types.Candidate {
	c := &collector{e: e, seen: make(map[string]bool)}

	switch scope.Kind {
	case types.ScopeProject:
		e.projectFiles(c, f)
	case types.ScopeOpenBuffers:
		e.openedFiles(c, f)
	case types.ScopeDirectory:
		e.dirFiles(c, scope.Root, f)
	}

	debug.LogEnumerate("%s: %d candidates\n", scope, len(c.items))
	return c.items
}

// collector accumulates candidates and enforces the dedup rule
type collector struct {
	e     *Enumerator
	seen  map[string]bool
	items []types.Candidate
}

func (c *collector) add(path, bufferID string) {
	key := identity(path, bufferID)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.items = append(c.items, types.Candidate{
		Path:         path,
		BufferID:     bufferID,
		ContextLines: c.e.contextLines,
	})
}

// addFile adds an on-disk file, preferring its open buffer when there is one.
// A file open under a non-text viewer is skipped entirely.
func (c *collector) addFile(path string) {
	if buf, ok := c.e.buffers.ForPath(path); ok {
		if buf.Kind == types.PlainTextEditor {
			c.add(path, buf.ID)
		}
		return
	}

	if ft := c.e.detector.Detect(path); !ft.Searchable() {
		debug.LogEnumerate("skip %s (%s)\n", path, ft)
		return
	}
	c.add(path, "")
}

// identity is the dedup key of a candidate: its resolved real path, or the
// buffer identifier for documents that were never saved
func identity(path, bufferID string) string {
	if path == "" {
		return "buffer:" + bufferID
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return filepath.Clean(path)
}

// projectFiles iterates the project file set in its own order
func (e *Enumerator) projectFiles(c *collector, f *filter.Filter) {
	for _, entry := range e.project {
		if types.IsDirEntry(entry) {
			continue
		}
		if !f.Match(entry) {
			continue
		}
		c.addFile(entry)
	}
}

// openedFiles iterates the open plain-text buffers in tab order
func (e *Enumerator) openedFiles(c *collector, f *filter.Filter) {
	for _, buf := range e.buffers.TextEditors() {
		if !f.Match(buf.Path) {
			continue
		}
		c.add(buf.Path, buf.ID)
	}
}

// dirFiles walks root in pre-order: entries sorted by name, each directory
// descended as soon as it is met. The filter is tested on files only, against
// their resolved real path.
func (e *Enumerator) dirFiles(c *collector, root string, f *filter.Filter) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		e.observer.Warning(fiferrors.NewDirectoryError(root, err))
		return
	}

	// Track visited directories to prevent infinite loops from symlink cycles
	visitedDirs := make(map[string]bool)
	if real, err := filepath.EvalSymlinks(absRoot); err == nil {
		visitedDirs[real] = true
	}

	e.walkDir(c, absRoot, f, visitedDirs)
}

func (e *Enumerator) walkDir(c *collector, dir string, f *filter.Filter, visitedDirs map[string]bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		dirErr := fiferrors.NewDirectoryError(dir, err)
		debug.Warn("ENUM", "%v\n", dirErr)
		e.observer.Warning(dirErr)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// os.Stat follows symlinks so linked directories are descended too
		info, statErr := os.Stat(path)
		if statErr == nil && info.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil || visitedDirs[real] {
				continue
			}
			visitedDirs[real] = true
			e.walkDir(c, path, f, visitedDirs)
			continue
		}

		if statErr != nil || !info.Mode().IsRegular() {
			// Broken symlink, FIFO, socket or device
			continue
		}

		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}
		if !f.Match(real) {
			continue
		}
		c.addFile(real)
	}
}
