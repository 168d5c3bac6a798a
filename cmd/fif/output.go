package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/standardbeagle/fif/internal/search"
	"github.com/standardbeagle/fif/internal/session"
	"github.com/standardbeagle/fif/internal/types"
	"github.com/standardbeagle/fif/pkg/pathutil"
)

// printer renders a search report for a terminal
type printer struct {
	w       io.Writer
	root    string
	pattern *search.Pattern

	file    *color.Color
	lineNo  *color.Color
	match   *color.Color
	tooltip *color.Color
	warn    *color.Color
}

func newPrinter(w io.Writer, root string, pattern *search.Pattern) *printer {
	return &printer{
		w:       w,
		root:    root,
		pattern: pattern,
		file:    color.New(color.FgCyan, color.Bold),
		lineNo:  color.New(color.FgGreen),
		match:   color.New(color.FgRed, color.Bold),
		tooltip: color.New(color.Faint),
		warn:    color.New(color.FgYellow),
	}
}

func (p *printer) report(report *session.Report, snippets bool) {
	for _, result := range report.Results {
		p.fileResult(result, snippets)
	}

	for _, c := range report.Status.TruncatedFiles {
		p.warn.Fprintf(p.w, "Stopped after %d matches in %s\n",
			types.MaxMatchesPerFile, pathutil.ToRelative(c.Name(), p.root))
	}

	fmt.Fprintf(p.w, "%d matches in %d files (%d searched) in %v\n",
		report.Status.MatchCount, len(report.Results), report.Status.FilesSearched,
		report.Elapsed.Round(time.Millisecond))
}

func (p *printer) fileResult(result types.FileResult, snippets bool) {
	p.file.Fprintln(p.w, pathutil.ToRelative(result.Candidate.Name(), p.root))
	if result.Tooltip != "" {
		first, _, _ := strings.Cut(result.Tooltip, "\n")
		p.tooltip.Fprintf(p.w, "  %s\n", first)
	}

	for _, m := range result.Matches {
		fmt.Fprintf(p.w, "%s:%d: %s\n", p.lineNo.Sprintf("%6d", m.Line), m.Start+1, p.highlight(m))
		if snippets {
			for _, line := range strings.Split(m.Snippet, "\n") {
				fmt.Fprintf(p.w, "        | %s\n", line)
			}
		}
	}
}

// highlight colors the first match of the query inside the trimmed line
func (p *printer) highlight(m types.MatchRecord) string {
	if p.pattern == nil {
		return m.Text
	}
	start, end, ok := p.pattern.Find(m.Text)
	if !ok || start >= end {
		return m.Text
	}
	text := []rune(m.Text)
	return string(text[:start]) + p.match.Sprint(string(text[start:end])) + string(text[end:])
}
