// Package content yields the text lines of a search candidate, either from the
// live text of an open buffer or from the file on disk.
package content

import (
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/types"
)

// Source reads candidate content. Buffers is consulted for candidates that
// carry a buffer identifier; it may be nil.
type Source struct {
	buffers *types.BufferIndex
}

// NewSource creates a content source over the given open buffers
func NewSource(buffers *types.BufferIndex) *Source {
	return &Source{buffers: buffers}
}

// Text returns the whole text of a candidate. The live buffer text wins over
// the file on disk. When the buffer is no longer open the file is read
// instead; a buffer-only candidate without a file is then NotFound.
func (s *Source) Text(c types.Candidate) (string, error) {
	if c.BufferID != "" {
		if buf, ok := s.buffers.ByID(c.BufferID); ok && buf.Text != nil {
			return buf.Text(), nil
		}
	}

	if c.Path == "" {
		return "", fiferrors.NewFileError("open", c.Name(), fs.ErrNotExist)
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return "", fiferrors.NewFileError("read", c.Path, err)
	}
	if !utf8.Valid(data) {
		return "", fiferrors.NewEncodingError(c.Path)
	}
	return string(data), nil
}

// Lines returns the candidate content split on line boundaries
func (s *Source) Lines(c types.Candidate) ([]string, error) {
	text, err := s.Text(c)
	if err != nil {
		return nil, err
	}
	return SplitLines(text), nil
}

// SplitLines splits text on "\n" and drops a trailing "\r" from each line.
// A final line terminator does not produce an extra empty line; empty text
// has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
