// Package history keeps the most recently used search inputs.
package history

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/types"
)

// FileName is the history file created inside the state directory
const FileName = "history.toml"

// History holds three most-recently-used lists, newest first
type History struct {
	Queries []string `toml:"queries"`
	Dirs    []string `toml:"dirs"`
	Masks   []string `toml:"masks"`

	max int
}

// New creates an empty history keeping up to max entries per list. A max
// below one selects types.DefaultHistorySize.
func New(max int) *History {
	if max <= 0 {
		max = types.DefaultHistorySize
	}
	return &History{max: max}
}

// Load reads a history file. A missing file yields an empty history.
func Load(path string, max int) (*History, error) {
	h := New(max)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fiferrors.NewFileError("read", path, err)
	}
	if err := toml.Unmarshal(data, h); err != nil {
		return nil, fiferrors.NewParseError(path, 0, 0, err)
	}

	h.Queries = clip(h.Queries, h.max)
	h.Dirs = clip(h.Dirs, h.max)
	h.Masks = clip(h.Masks, h.max)
	return h, nil
}

// Save writes the history to path, creating parent directories
func (h *History) Save(path string) error {
	data, err := toml.Marshal(h)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fiferrors.NewFileError("mkdir", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fiferrors.NewFileError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fiferrors.NewFileError("rename", path, err)
	}
	return nil
}

// Record pushes the inputs of one search; empty values are skipped
func (h *History) Record(query, dir, mask string) {
	h.Queries = Push(h.Queries, query, h.max)
	h.Dirs = Push(h.Dirs, dir, h.max)
	h.Masks = Push(h.Masks, mask, h.max)
}

// Push moves item to the front of list, dropping any earlier copy and
// anything past max
func Push(list []string, item string, max int) []string {
	if item == "" {
		return list
	}

	out := make([]string, 0, min(len(list)+1, max))
	out = append(out, item)
	for _, existing := range list {
		if len(out) == max {
			break
		}
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

func clip(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

// DefaultPath returns where the history of a project is kept: inside the
// project's .fif directory, or in the user config directory without a project
func DefaultPath(projectRoot string) (string, error) {
	if projectRoot != "" {
		return filepath.Join(projectRoot, ".fif", FileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "fif", FileName), nil
}
