package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/search"
	"github.com/standardbeagle/fif/internal/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	}
}

func TestRun_TodoInTwoFileTree(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.py": "import os\n\n# TODO: fix\nprint(os)\n",
		"b.py": "nothing to see here\n",
	})

	s := New(Options{
		Query: types.QuerySpec{Text: "TODO"},
		Scope: types.DirectoryScope(root),
	}, Deps{})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Completed, report.State)
	assert.Equal(t, Completed, s.State())
	require.Len(t, report.Results, 1)
	assert.Equal(t, "a.py", filepath.Base(report.Results[0].Candidate.Path))
	require.Len(t, report.Results[0].Matches, 1)
	assert.Equal(t, 3, report.Results[0].Matches[0].Line)

	assert.Equal(t, 1, report.Status.MatchCount)
	assert.Equal(t, 2, report.Status.FilesSearched)
	assert.False(t, report.Status.Cancelled)
	assert.NotEmpty(t, report.ID)
}

func TestRun_InvalidPatternFailsBeforeEnumeration(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"query", Options{Query: types.QuerySpec{Text: "(unbalanced", Regexp: true}}},
		{"filter", Options{Query: types.QuerySpec{Text: "x"}, Filter: types.FilterSpec{Pattern: "*.py"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var progressed, warned int
			observer := types.ObserverFuncs{
				OnProgress: func(types.Progress) { progressed++ },
				OnWarning:  func(error) { warned++ },
			}

			// A missing root would warn if enumeration ever started
			tt.opts.Scope = types.DirectoryScope(filepath.Join(t.TempDir(), "missing"))
			s := New(tt.opts, Deps{Observer: observer})

			report, err := s.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, fiferrors.ErrInvalidPattern))
			assert.Equal(t, Failed, report.State)
			assert.Empty(t, report.Results)
			assert.Zero(t, progressed)
			assert.Zero(t, warned)
		})
	}
}

func TestRun_UnsavedBufferWins(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"notes.txt": "saved content only\n"})
	path := filepath.Join(root, "notes.txt")

	buffers := types.NewBufferIndex(types.OpenBuffer{
		ID:   "buf-1",
		Path: path,
		Kind: types.PlainTextEditor,
		Text: func() string { return "first line\nan unsaved needle\n" },
	})

	for _, scope := range []types.Scope{types.DirectoryScope(root), types.OpenBuffersScope()} {
		t.Run(scope.Kind.String(), func(t *testing.T) {
			s := New(Options{Query: types.QuerySpec{Text: "needle"}, Scope: scope}, Deps{Buffers: buffers})

			report, err := s.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, report.Results, 1)
			assert.Equal(t, "buf-1", report.Results[0].Candidate.BufferID)
			assert.Equal(t, 2, report.Results[0].Matches[0].Line)

			s = New(Options{Query: types.QuerySpec{Text: "saved content"}, Scope: scope}, Deps{Buffers: buffers})
			report, err = s.Run(context.Background())
			require.NoError(t, err)
			assert.Empty(t, report.Results)
		})
	}
}

func TestRun_CancellationDiscardsResults(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"1.txt": "match\n",
		"2.txt": "match\n",
		"3.txt": "match\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress []types.Progress
	observer := types.ObserverFuncs{OnProgress: func(p types.Progress) {
		progress = append(progress, p)
		if p.Index == 2 {
			cancel()
		}
	}}

	s := New(Options{Query: types.QuerySpec{Text: "match"}, Scope: types.DirectoryScope(root)}, Deps{Observer: observer})
	report, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Cancelled, report.State)
	assert.True(t, report.Status.Cancelled)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Status.MatchCount)

	// The in-flight candidate finished and reported before the check
	require.Len(t, progress, 2)
	assert.Equal(t, 2, progress[1].Matches)
	assert.Equal(t, 3, progress[1].Total)
}

func TestRun_AlreadyCancelledStillScansOneCandidate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"1.txt": "x\n", "2.txt": "x\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var scanned int
	observer := types.ObserverFuncs{OnProgress: func(types.Progress) { scanned++ }}
	s := New(Options{Query: types.QuerySpec{Text: "x"}, Scope: types.DirectoryScope(root)}, Deps{Observer: observer})

	report, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, report.State)
	assert.Equal(t, 1, scanned)
}

func TestRun_ProgressAfterEachCandidate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt":     "hit\nhit\n",
		"b.txt":     "miss\n",
		"sub/c.txt": "hit\n",
	})

	var progress []types.Progress
	observer := types.ObserverFuncs{OnProgress: func(p types.Progress) { progress = append(progress, p) }}

	s := New(Options{Query: types.QuerySpec{Text: "hit"}, Scope: types.DirectoryScope(root)}, Deps{Observer: observer})
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, progress, 3)

	assert.Equal(t, []int{2, 2, 3}, []int{progress[0].Matches, progress[1].Matches, progress[2].Matches})
	for i, p := range progress {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, 3, p.Total)
	}
	assert.Equal(t, "c.txt", filepath.Base(progress[2].Name))
	assert.Equal(t, 3, report.Status.MatchCount)
	assert.Len(t, report.Results, 2)
}

func TestRun_EmptyCandidateList(t *testing.T) {
	s := New(Options{Query: types.QuerySpec{Text: "x"}, Scope: types.ProjectScope()}, Deps{})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, report.State)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Status.FilesSearched)
}

func TestRun_UnreadableCandidateIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.txt": "needle\n",
		"bad.txt":  "caf\xe9 needle\n",
	})

	var warnings []error
	observer := types.ObserverFuncs{OnWarning: func(err error) { warnings = append(warnings, err) }}

	s := New(Options{Query: types.QuerySpec{Text: "needle"}, Scope: types.DirectoryScope(root)}, Deps{Observer: observer})
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Completed, report.State)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "good.txt", filepath.Base(report.Results[0].Candidate.Path))

	require.Len(t, warnings, 1)
	assert.True(t, errors.Is(warnings[0], fiferrors.ErrCandidateUnreadable))
	assert.Equal(t, warnings, report.Warnings)
	assert.Equal(t, 1, report.Status.FilesSearched)
}

func TestRun_ProjectScopeWithFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"pkg/mod.py":  "value = 1\n",
		"pkg/data.md": "value\n",
	})

	project := types.ProjectFileSet{
		root + string(os.PathSeparator),
		filepath.Join(root, "pkg") + string(os.PathSeparator),
		filepath.Join(root, "pkg", "data.md"),
		filepath.Join(root, "pkg", "mod.py"),
	}

	s := New(Options{
		Query:  types.QuerySpec{Text: "value", WholeWord: true},
		Filter: types.FilterSpec{Pattern: `.*\.py$`, CaseInsensitive: true},
		Scope:  types.ProjectScope(),
	}, Deps{Project: project})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "mod.py", filepath.Base(report.Results[0].Candidate.Path))
}

func TestRun_TruncatedFilesListed(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 0, 2*(types.MaxMatchesPerFile+10))
	for i := 0; i < types.MaxMatchesPerFile+10; i++ {
		big = append(big, "x\n"...)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), big, 0644))

	s := New(Options{Query: types.QuerySpec{Text: "x"}, Scope: types.DirectoryScope(root)}, Deps{})
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Truncated)
	assert.Len(t, report.Results[0].Matches, types.MaxMatchesPerFile)
	require.Len(t, report.Status.TruncatedFiles, 1)
	assert.Equal(t, types.MaxMatchesPerFile, report.Status.MatchCount)
}

func TestRun_ContextLinesOption(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"f.txt": "a\nb\nhit\nd\ne\n"})

	s := New(Options{
		Query:        types.QuerySpec{Text: "hit"},
		Scope:        types.DirectoryScope(root),
		ContextLines: 3,
	}, Deps{Engine: search.NewEngine(search.Options{BeginMarker: "[", EndMarker: "]"})})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "b\n[hit]\nd", report.Results[0].Matches[0].Snippet)
}

func TestRun_SingleUse(t *testing.T) {
	s := New(Options{Query: types.QuerySpec{Text: "x"}, Scope: types.ProjectScope()}, Deps{})

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "scanning", Scanning.String())
	assert.True(t, Cancelled.Terminal())
	assert.False(t, BuildingCandidateList.Terminal())
}
