package candidates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/filter"
	"github.com/standardbeagle/fif/internal/types"
)

// setupTree creates files under a fresh temp dir and returns its resolved root
func setupTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func mustFilter(t *testing.T, pattern string) *filter.Filter {
	t.Helper()
	f, err := filter.Compile(pattern, true)
	require.NoError(t, err)
	return f
}

func paths(cands []types.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Path)
	}
	return out
}

type recordingObserver struct {
	warnings []error
}

func (r *recordingObserver) Progress(types.Progress) {}
func (r *recordingObserver) Warning(err error)       { r.warnings = append(r.warnings, err) }

func TestEnumerate_DirectoryPreOrder(t *testing.T) {
	root := setupTree(t, map[string]string{
		"a.txt":         "a",
		"b/c.txt":       "c",
		"b/d/e.txt":     "e",
		"b/f.txt":       "f",
		"g.txt":         "g",
		"h/i.txt":       "i",
		"h/zz/last.txt": "z",
	})

	e := NewEnumerator(nil, nil, nil)
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))

	expected := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b/c.txt"),
		filepath.Join(root, "b/d/e.txt"),
		filepath.Join(root, "b/f.txt"),
		filepath.Join(root, "g.txt"),
		filepath.Join(root, "h/i.txt"),
		filepath.Join(root, "h/zz/last.txt"),
	}
	assert.Equal(t, expected, paths(cands))

	for _, c := range cands {
		assert.Equal(t, types.DefaultContextLines, c.ContextLines)
		assert.Empty(t, c.BufferID)
	}
}

func TestEnumerate_DirectoryFilterOnFilesOnly(t *testing.T) {
	root := setupTree(t, map[string]string{
		"pkg/mod.py":    "x = 1",
		"pkg/notes.txt": "notes",
		"top.py":        "y = 2",
	})

	e := NewEnumerator(nil, nil, nil)
	// The directory "pkg" would not pass this filter; it is descended anyway
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, `.*\.py$`))

	assert.Equal(t, []string{
		filepath.Join(root, "pkg/mod.py"),
		filepath.Join(root, "top.py"),
	}, paths(cands))
}

func TestEnumerate_DirectoryDedupSymlinkAliases(t *testing.T) {
	root := setupTree(t, map[string]string{
		"real/one.txt": "1",
		"real/two.txt": "2",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "real/one.txt"), filepath.Join(root, "alias.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")))
	// Cycle back to the root
	require.NoError(t, os.Symlink(root, filepath.Join(root, "real/loop")))

	e := NewEnumerator(nil, nil, nil)
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))

	// alias.txt resolves to real/one.txt and comes first in walk order, so the
	// real path is recorded once; linkdir and loop point at visited directories
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "real/one.txt"),
		filepath.Join(root, "real/two.txt"),
	}, paths(cands))
	assert.Len(t, cands, 2)
}

func TestEnumerate_DirectoryExcludesNonText(t *testing.T) {
	root := setupTree(t, map[string]string{
		"mod.py":       "x = 1\n",
		"mod.pyc":      "\x00\x01bytecode",
		"libx.so":      "\x7fELF",
		"doc.pdf":      "%PDF-1.4",
		"pic.png":      "png",
		"exe":          "\x7fELF\x02\x01\x01",
		"empty.txt":    "",
		"readme":       "plain text without extension\n",
		"sub/data.bin": "bin",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.txt"), filepath.Join(root, "dangling.txt")))

	e := NewEnumerator(nil, nil, nil)
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "empty.txt"),
		filepath.Join(root, "mod.py"),
		filepath.Join(root, "readme"),
	}, paths(cands))
}

func TestEnumerate_DirectoryUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := setupTree(t, map[string]string{
		"ok.txt":          "ok",
		"locked/hid.txt":  "hidden",
		"zafter/more.txt": "more",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	obs := &recordingObserver{}
	e := NewEnumerator(nil, nil, obs)
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))

	assert.Equal(t, []string{
		filepath.Join(root, "ok.txt"),
		filepath.Join(root, "zafter/more.txt"),
	}, paths(cands))

	require.Len(t, obs.warnings, 1)
	assert.True(t, errors.Is(obs.warnings[0], fiferrors.ErrDirectoryUnreadable))
}

func TestEnumerate_MissingRootWarns(t *testing.T) {
	obs := &recordingObserver{}
	e := NewEnumerator(nil, nil, obs)

	cands := e.Enumerate(types.DirectoryScope(filepath.Join(t.TempDir(), "missing")), mustFilter(t, ""))

	assert.Empty(t, cands)
	require.Len(t, obs.warnings, 1)
	assert.True(t, errors.Is(obs.warnings[0], fiferrors.ErrDirectoryUnreadable))
}

func TestEnumerate_DirectoryUsesOpenTextBuffer(t *testing.T) {
	root := setupTree(t, map[string]string{
		"open.py":  "on disk",
		"icon.txt": "pretend image",
		"plain.py": "closed",
	})

	buffers := types.NewBufferIndex(
		types.OpenBuffer{ID: "buf-1", Path: filepath.Join(root, "open.py"), Kind: types.PlainTextEditor},
		types.OpenBuffer{ID: "buf-2", Path: filepath.Join(root, "icon.txt"), Kind: types.PixmapViewer},
	)

	e := NewEnumerator(nil, buffers, nil)
	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))

	require.Len(t, cands, 2)
	assert.Equal(t, filepath.Join(root, "open.py"), cands[0].Path)
	assert.Equal(t, "buf-1", cands[0].BufferID)
	assert.Equal(t, filepath.Join(root, "plain.py"), cands[1].Path)
	assert.Empty(t, cands[1].BufferID)
}

func TestEnumerate_Project(t *testing.T) {
	root := setupTree(t, map[string]string{
		"main.py":       "print(1)",
		"pkg/util.py":   "x",
		"pkg/util.pyc":  "\x00\x00",
		"pkg/image.txt": "viewer",
		"zeta.txt":      "z",
	})
	sep := string(os.PathSeparator)
	project := types.ProjectFileSet{
		root + sep,
		filepath.Join(root, "zeta.txt"),
		filepath.Join(root, "pkg") + sep,
		filepath.Join(root, "pkg/util.py"),
		filepath.Join(root, "pkg/util.pyc"),
		filepath.Join(root, "pkg/image.txt"),
		filepath.Join(root, "main.py"),
		filepath.Join(root, "main.py"), // duplicate entry
	}
	buffers := types.NewBufferIndex(
		types.OpenBuffer{ID: "m", Path: filepath.Join(root, "main.py"), Kind: types.PlainTextEditor},
		types.OpenBuffer{ID: "i", Path: filepath.Join(root, "pkg/image.txt"), Kind: types.PixmapViewer},
	)

	e := NewEnumerator(project, buffers, nil)

	t.Run("no filter keeps project order", func(t *testing.T) {
		cands := e.Enumerate(types.ProjectScope(), mustFilter(t, ""))
		require.Len(t, cands, 3)
		assert.Equal(t, filepath.Join(root, "zeta.txt"), cands[0].Path)
		assert.Equal(t, filepath.Join(root, "pkg/util.py"), cands[1].Path)
		assert.Equal(t, filepath.Join(root, "main.py"), cands[2].Path)
		assert.Equal(t, "m", cands[2].BufferID)
	})

	t.Run("filter", func(t *testing.T) {
		cands := e.Enumerate(types.ProjectScope(), mustFilter(t, `.*\.py$`))
		assert.Equal(t, []string{
			filepath.Join(root, "pkg/util.py"),
			filepath.Join(root, "main.py"),
		}, paths(cands))
	})
}

func TestEnumerate_OpenBuffers(t *testing.T) {
	buffers := types.NewBufferIndex(
		types.OpenBuffer{ID: "1", Path: "/work/a.py", Kind: types.PlainTextEditor},
		types.OpenBuffer{ID: "2", Path: "/work/b.png", Kind: types.PixmapViewer},
		types.OpenBuffer{ID: "3", Path: "", Kind: types.PlainTextEditor},
		types.OpenBuffer{ID: "4", Path: "/work/c.txt", Kind: types.PlainTextEditor},
	)
	e := NewEnumerator(nil, buffers, nil)

	all := e.Enumerate(types.OpenBuffersScope(), mustFilter(t, ""))
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].BufferID)
	assert.Equal(t, "3", all[1].BufferID)
	assert.Equal(t, "", all[1].Path)
	assert.Equal(t, "4", all[2].BufferID)

	py := e.Enumerate(types.OpenBuffersScope(), mustFilter(t, `.*\.py$`))
	require.Len(t, py, 1)
	assert.Equal(t, "/work/a.py", py[0].Path)
}

func TestEnumerate_ContextLinesOverride(t *testing.T) {
	root := setupTree(t, map[string]string{"a.txt": "a"})
	e := NewEnumerator(nil, nil, nil)
	e.SetContextLines(5)

	cands := e.Enumerate(types.DirectoryScope(root), mustFilter(t, ""))
	require.Len(t, cands, 1)
	assert.Equal(t, 5, cands[0].ContextLines)
}

func TestProbe(t *testing.T) {
	root := setupTree(t, map[string]string{
		"a/b/deep.py": "x",
		"top.txt":     "t",
	})

	e := NewEnumerator(types.ProjectFileSet{filepath.Join(root, "top.txt")}, nil, nil)

	t.Run("directory match", func(t *testing.T) {
		r := e.Probe(types.DirectoryScope(root), mustFilter(t, `.*\.py$`), time.Second)
		assert.True(t, r.Matched)
		assert.True(t, r.Worthwhile())
	})

	t.Run("directory no match", func(t *testing.T) {
		r := e.Probe(types.DirectoryScope(root), mustFilter(t, `.*\.rs$`), time.Second)
		assert.False(t, r.Matched)
		assert.False(t, r.TooLong)
		assert.False(t, r.Worthwhile())
	})

	t.Run("exhausted budget assumes a match", func(t *testing.T) {
		r := e.Probe(types.DirectoryScope(root), mustFilter(t, `.*\.rs$`), -time.Second)
		assert.True(t, r.TooLong)
		assert.True(t, r.Worthwhile())
	})

	t.Run("project", func(t *testing.T) {
		assert.True(t, e.Probe(types.ProjectScope(), mustFilter(t, `.*top`), time.Second).Matched)
		assert.False(t, e.Probe(types.ProjectScope(), mustFilter(t, `.*\.py$`), time.Second).Matched)
	})
}

func TestSearchability(t *testing.T) {
	root := setupTree(t, map[string]string{"a.py": "x"})
	file := filepath.Join(root, "a.py")
	e := NewEnumerator(nil, nil, nil)

	ci := func(pattern string) types.FilterSpec {
		return types.FilterSpec{Pattern: pattern, CaseInsensitive: true}
	}

	tests := []struct {
		name    string
		query   string
		scope   types.Scope
		filter  types.FilterSpec
		enabled bool
		reason  string
	}{
		{"empty query", "  ", types.DirectoryScope(root), ci(""), false, "No text to search"},
		{"empty dir", "x", types.DirectoryScope(""), ci(""), false, "No directory path"},
		{"not a dir", "x", types.DirectoryScope(file), ci(""), false, "Path is not a directory"},
		{"no filter", "x", types.DirectoryScope(root), ci(""), true, "Find in files"},
		{"bad filter", "x", types.DirectoryScope(root), ci("("), false, "Incorrect files filter regular expression"},
		{"filter matches", "x", types.DirectoryScope(root), ci(`.*\.py$`), true, "Find in files"},
		{"filter ignores case", "x", types.DirectoryScope(root), ci(`.*\.PY$`), true, "Find in files"},
		{"case-sensitive filter", "x", types.DirectoryScope(root), types.FilterSpec{Pattern: `.*\.PY$`}, false, "No files matched to search in"},
		{"filter matches nothing", "x", types.DirectoryScope(root), ci(`.*\.go$`), false, "No files matched to search in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := e.Searchability(tt.query, tt.scope, tt.filter, time.Second)
			assert.Equal(t, tt.enabled, v.Enabled)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}
