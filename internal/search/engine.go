package search

import (
	"strings"

	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/outline"
	"github.com/standardbeagle/fif/internal/types"
)

// ModuleParser provides the brief structure of a Python module
type ModuleParser interface {
	ParseString(source string) *outline.ModuleInfo
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	BeginMarker       string
	EndMarker         string
	Parser            ModuleParser // Nil disables docstring tooltips
	DisableDocstrings bool
}

// Engine scans the lines of one candidate at a time
type Engine struct {
	begin  string
	end    string
	parser ModuleParser
}

// NewEngine creates an engine from opts
func NewEngine(opts Options) *Engine {
	e := &Engine{
		begin:  opts.BeginMarker,
		end:    opts.EndMarker,
		parser: opts.Parser,
	}
	if e.begin == "" && e.end == "" {
		e.begin = types.DefaultBeginMarker
		e.end = types.DefaultEndMarker
	}
	if opts.DisableDocstrings {
		e.parser = nil
	}
	return e
}

// Scan collects the matches of p in lines for candidate c. At most
// MaxMatchesPerFile records are kept; finding one more sets Truncated and
// ends the scan. Python candidates with at least one match get their module
// docstring as tooltip.
func (e *Engine) Scan(p *Pattern, c types.Candidate, lines []string) types.FileResult {
	result := types.FileResult{Candidate: c}

	s := e.NewLineScanner(p, lines, c.ContextLines)
	for s.Next() {
		if len(result.Matches) == types.MaxMatchesPerFile {
			result.Truncated = true
			debug.Warn("SEARCH", "more than %d matches in %s, rest of file skipped\n",
				types.MaxMatchesPerFile, c.Name())
			break
		}
		result.Matches = append(result.Matches, s.Match())
	}

	if len(result.Matches) > 0 && IsPythonCandidate(c) {
		result.Tooltip = e.docstring(lines)
	}
	return result
}

// IsPythonCandidate reports whether c carries a Python source suffix
func IsPythonCandidate(c types.Candidate) bool {
	return types.IsPythonFile(c.Path)
}

// docstring returns the module docstring, or "" when there is no parser or
// parsing fails in any way
func (e *Engine) docstring(lines []string) (doc string) {
	if e.parser == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			debug.LogSearch("docstring extraction failed: %v\n", r)
			doc = ""
		}
	}()

	info := e.parser.ParseString(strings.Join(lines, "\n"))
	if info == nil {
		return ""
	}
	return info.Docstring
}

// LineScanner walks lines in order yielding one match record per matching
// line. It is finite and cannot be restarted.
type LineScanner struct {
	engine       *Engine
	pattern      *Pattern
	lines        []string
	contextLines int

	next    int
	current types.MatchRecord
}

// NewLineScanner creates a scanner over lines. contextLines below one selects
// the default snippet size.
func (e *Engine) NewLineScanner(p *Pattern, lines []string, contextLines int) *LineScanner {
	if contextLines <= 0 {
		contextLines = types.DefaultContextLines
	}
	return &LineScanner{
		engine:       e,
		pattern:      p,
		lines:        lines,
		contextLines: contextLines,
	}
}

// Next advances to the next matching line and reports whether there is one
func (s *LineScanner) Next() bool {
	for s.next < len(s.lines) {
		index := s.next
		s.next++

		start, end, ok := s.pattern.Find(s.lines[index])
		if !ok {
			continue
		}
		s.current = types.MatchRecord{
			Line:    index + 1,
			Start:   start,
			End:     end,
			Text:    strings.TrimSpace(s.lines[index]),
			Snippet: s.engine.Snippet(s.lines, index, start, end, s.contextLines),
		}
		return true
	}
	return false
}

// Match returns the record found by the last successful Next
func (s *LineScanner) Match() types.MatchRecord {
	return s.current
}
