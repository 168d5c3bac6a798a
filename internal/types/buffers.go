package types

import (
	"path/filepath"
)

// BufferIndex lists the currently open documents in tab order.
// The zero value is an empty index.
type BufferIndex struct {
	buffers []OpenBuffer
	byPath  map[string]int
}

// NewBufferIndex creates an index over the given open documents
func NewBufferIndex(buffers ...OpenBuffer) *BufferIndex {
	idx := &BufferIndex{}
	for _, b := range buffers {
		idx.Add(b)
	}
	return idx
}

// Add registers an open document. A later document with the same path
// replaces the lookup entry but keeps both in the ordered list.
func (bi *BufferIndex) Add(b OpenBuffer) {
	if bi.byPath == nil {
		bi.byPath = make(map[string]int)
	}
	bi.buffers = append(bi.buffers, b)
	if b.Path != "" {
		bi.byPath[canonicalPath(b.Path)] = len(bi.buffers) - 1
	}
}

// All returns every open document in order
func (bi *BufferIndex) All() []OpenBuffer {
	if bi == nil {
		return nil
	}
	return bi.buffers
}

// TextEditors returns the open plain-text documents in order
func (bi *BufferIndex) TextEditors() []OpenBuffer {
	if bi == nil {
		return nil
	}
	editors := make([]OpenBuffer, 0, len(bi.buffers))
	for _, b := range bi.buffers {
		if b.Kind == PlainTextEditor {
			editors = append(editors, b)
		}
	}
	return editors
}

// ForPath returns the document open for the given file, if any
func (bi *BufferIndex) ForPath(path string) (OpenBuffer, bool) {
	if bi == nil || bi.byPath == nil || path == "" {
		return OpenBuffer{}, false
	}
	i, ok := bi.byPath[canonicalPath(path)]
	if !ok {
		return OpenBuffer{}, false
	}
	return bi.buffers[i], true
}

// ByID returns the document with the given identifier
func (bi *BufferIndex) ByID(id string) (OpenBuffer, bool) {
	if bi == nil {
		return OpenBuffer{}, false
	}
	for _, b := range bi.buffers {
		if b.ID == id {
			return b, true
		}
	}
	return OpenBuffer{}, false
}

// Len returns the number of open documents
func (bi *BufferIndex) Len() int {
	if bi == nil {
		return 0
	}
	return len(bi.buffers)
}

// canonicalPath resolves symlinks when possible so that an open buffer is
// found under any alias of its file
func canonicalPath(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return filepath.Clean(path)
}
