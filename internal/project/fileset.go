// Package project builds and maintains the file set of a project directory.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/types"
)

const sep = string(os.PathSeparator)

// Options controls which entries become part of the file set
type Options struct {
	// Excludes are doublestar globs tested against the entry name and its
	// slash separated path relative to the root
	Excludes         []string
	RespectGitignore bool
}

// Scan builds the file set of root: the root itself, every directory with a
// trailing separator and every file, minus excluded names. Symlinks that
// point back into the project are skipped so nothing is listed twice.
func Scan(root string, opts Options) (types.ProjectFileSet, error) {
	fs, err := NewFileSet(root, opts)
	if err != nil {
		return nil, err
	}
	return fs.Snapshot(), nil
}

// FileSet is the live file set of a project. It is safe for concurrent use.
type FileSet struct {
	root      string // Absolute, resolved, with trailing separator
	excludes  []string
	gitignore *Gitignore

	mu      sync.RWMutex
	entries map[string]struct{}
}

// NewFileSet scans root and returns its file set
func NewFileSet(root string, opts Options) (*FileSet, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "scan", Path: root, Err: os.ErrInvalid}
	}

	fs := &FileSet{
		root:     withSep(real),
		entries:  make(map[string]struct{}),
		excludes: validExcludes(opts.Excludes),
	}
	if opts.RespectGitignore {
		if fs.gitignore, err = LoadGitignore(real); err != nil {
			debug.Warn("PROJECT", "cannot read .gitignore: %v\n", err)
		}
	}

	fs.entries[fs.root] = struct{}{}
	fs.scanDir(fs.root, make(map[string]bool))
	debug.LogProject("scanned %s: %d entries\n", fs.root, len(fs.entries))
	return fs, nil
}

func validExcludes(globs []string) []string {
	var out []string
	for _, g := range globs {
		if doublestar.ValidatePattern(g) {
			out = append(out, g)
			continue
		}
		debug.Warn("PROJECT", "ignoring invalid exclude pattern %q\n", g)
	}
	return out
}

// Root returns the resolved project root with a trailing separator
func (fs *FileSet) Root() string { return fs.root }

// Snapshot returns the entries sorted by path
func (fs *FileSet) Snapshot() types.ProjectFileSet {
	fs.mu.RLock()
	out := make(types.ProjectFileSet, 0, len(fs.entries))
	for entry := range fs.entries {
		out = append(out, entry)
	}
	fs.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Len returns the number of entries including directories
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.entries)
}

// Contains reports whether path is in the set. Directories must carry the
// trailing separator.
func (fs *FileSet) Contains(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.entries[path]
	return ok
}

// Excluded reports whether an entry is filtered out by the exclude globs or
// the .gitignore patterns
func (fs *FileSet) Excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(fs.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	name := filepath.Base(path)

	for _, glob := range fs.excludes {
		if ok, _ := doublestar.Match(glob, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(glob, rel); ok {
			return true
		}
	}
	return fs.gitignore.Ignored(rel, isDir)
}

// Add inserts path, and for a directory its whole subtree. It returns the
// entries that were not in the set before.
func (fs *FileSet) Add(path string) []string {
	info, err := os.Stat(path)
	if err != nil || fs.Excluded(path, info.IsDir()) {
		return nil
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil
	}
	if lst, err := os.Lstat(path); err == nil && lst.Mode()&os.ModeSymlink != 0 && fs.pointsIntoProject(path, info.IsDir()) {
		return nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	before := len(fs.entries)
	added := make(map[string]bool)
	track := func(entry string) {
		if _, ok := fs.entries[entry]; !ok {
			added[entry] = true
		}
	}

	if info.IsDir() {
		entry := withSep(path)
		track(entry)
		fs.entries[entry] = struct{}{}
		fs.scanDirTracked(entry, make(map[string]bool), track)
	} else {
		track(path)
		fs.entries[path] = struct{}{}
	}

	if len(fs.entries) == before {
		return nil
	}
	out := make([]string, 0, len(added))
	for entry := range added {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}

// Remove deletes path and everything below it, returning what was removed
func (fs *FileSet) Remove(path string) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var removed []string
	dir := withSep(path)
	for entry := range fs.entries {
		if entry == path || entry == dir || strings.HasPrefix(entry, dir) {
			if entry == fs.root {
				continue
			}
			removed = append(removed, entry)
		}
	}
	for _, entry := range removed {
		delete(fs.entries, entry)
	}
	sort.Strings(removed)
	return removed
}

// scanDir must be called with fs.mu held or before fs is shared
func (fs *FileSet) scanDir(dir string, visited map[string]bool) {
	fs.scanDirTracked(dir, visited, nil)
}

func (fs *FileSet) scanDirTracked(dir string, visited map[string]bool, track func(string)) {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if visited[real] {
			return
		}
		visited[real] = true
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		debug.Warn("PROJECT", "cannot list %s: %v\n", dir, err)
		return
	}

	for _, item := range items {
		path := dir + item.Name()

		info, err := os.Stat(path)
		if err != nil {
			// Broken symlink
			continue
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		if fs.Excluded(path, info.IsDir()) {
			continue
		}
		if item.Type()&os.ModeSymlink != 0 && fs.pointsIntoProject(path, info.IsDir()) {
			continue
		}

		entry := path
		if info.IsDir() {
			entry = withSep(path)
		}
		if track != nil {
			track(entry)
		}
		fs.entries[entry] = struct{}{}

		if info.IsDir() {
			fs.scanDirTracked(entry, visited, track)
		}
	}
}

// pointsIntoProject reports whether a symlink targets something already
// covered by the project tree
func (fs *FileSet) pointsIntoProject(link string, isDir bool) bool {
	real, err := filepath.EvalSymlinks(link)
	if err != nil {
		return false
	}
	if !isDir {
		real = filepath.Dir(real)
	}
	return strings.HasPrefix(withSep(real), fs.root)
}

func withSep(path string) string {
	if strings.HasSuffix(path, sep) {
		return path
	}
	return path + sep
}
