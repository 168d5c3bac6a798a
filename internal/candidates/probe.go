package candidates

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/standardbeagle/fif/internal/filter"
	"github.com/standardbeagle/fif/internal/types"
)

// ProbeResult is the outcome of the "does any file match" feasibility probe
type ProbeResult struct {
	Matched bool // A file accepted by the filter was found
	TooLong bool // The budget ran out before an answer was found
}

// Worthwhile reports whether starting a search makes sense. An exhausted
// budget conservatively assumes a match exists.
func (r ProbeResult) Worthwhile() bool {
	return r.Matched || r.TooLong
}

// Probe looks for the first path of scope accepted by f, giving up once the
// wall clock budget is spent. It never reads file contents.
func (e *Enumerator) Probe(scope types.Scope, f *filter.Filter, budget time.Duration) ProbeResult {
	deadline := time.Now().Add(budget)

	switch scope.Kind {
	case types.ScopeProject:
		for _, entry := range e.project {
			if types.IsDirEntry(entry) {
				continue
			}
			if f.Match(entry) {
				return ProbeResult{Matched: true}
			}
			if time.Now().After(deadline) {
				return ProbeResult{TooLong: true}
			}
		}
	case types.ScopeOpenBuffers:
		for _, buf := range e.buffers.TextEditors() {
			if f.Match(buf.Path) {
				return ProbeResult{Matched: true}
			}
			if time.Now().After(deadline) {
				return ProbeResult{TooLong: true}
			}
		}
	case types.ScopeDirectory:
		root, err := filepath.Abs(scope.Root)
		if err != nil {
			return ProbeResult{}
		}
		return probeDir(root, f, deadline, make(map[string]bool))
	}

	return ProbeResult{}
}

func probeDir(dir string, f *filter.Filter, deadline time.Time, visited map[string]bool) ProbeResult {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if visited[real] {
			return ProbeResult{}
		}
		visited[real] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ProbeResult{}
	}

	for _, entry := range entries {
		if time.Now().After(deadline) {
			return ProbeResult{TooLong: true}
		}

		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if r := probeDir(path, f, deadline, visited); r.Matched || r.TooLong {
				return r
			}
			continue
		}
		if info.Mode().IsRegular() && f.Match(path) {
			return ProbeResult{Matched: true}
		}
	}
	return ProbeResult{}
}

// Verdict tells a host whether the "Find" action should be enabled and why
type Verdict struct {
	Enabled bool
	Reason  string
}

// Searchability runs the precondition checks a host performs before offering
// a search: non-empty query, a usable directory root, a compilable filter and
// a positive (or inconclusive) feasibility probe.
func (e *Enumerator) Searchability(query string, scope types.Scope, spec types.FilterSpec, budget time.Duration) Verdict {
	if strings.TrimSpace(query) == "" {
		return Verdict{Reason: "No text to search"}
	}

	if scope.Kind == types.ScopeDirectory {
		root := strings.TrimSpace(scope.Root)
		if root == "" {
			return Verdict{Reason: "No directory path"}
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return Verdict{Reason: "Path is not a directory"}
		}
	}

	if strings.TrimSpace(spec.Pattern) == "" {
		return Verdict{Enabled: true, Reason: "Find in files"}
	}

	f, err := filter.CompileSpec(spec)
	if err != nil {
		return Verdict{Reason: "Incorrect files filter regular expression"}
	}

	if e.Probe(scope, f, budget).Worthwhile() {
		return Verdict{Enabled: true, Reason: "Find in files"}
	}
	return Verdict{Reason: "No files matched to search in"}
}
