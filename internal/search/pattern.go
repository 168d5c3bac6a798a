// Package search compiles user queries and scans candidate lines for matches.
package search

import (
	"errors"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/standardbeagle/fif/internal/debug"
	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/types"
)

// MatchTimeout bounds the time a single line match may take. A line whose
// match times out is treated as not matching.
const MatchTimeout = 2 * time.Second

var errEmptyQuery = errors.New("empty query")

// Pattern is a compiled query
type Pattern struct {
	query types.QuerySpec
	expr  string
	re    *regexp2.Regexp
}

// Compile builds the matchable form of a query. Literal text is escaped
// unless the query is a regular expression; whole word queries are wrapped
// in word boundary anchors. Matching ignores case unless CaseSensitive is
// set, using Unicode simple case folding independent of any locale.
func Compile(q types.QuerySpec) (*Pattern, error) {
	if q.Text == "" {
		return nil, fiferrors.NewPatternError("query", q.Text, errEmptyQuery)
	}

	expr := q.Text
	if !q.Regexp {
		expr = regexp2.Escape(expr)
	}
	if q.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}

	var opts regexp2.RegexOptions
	if !q.CaseSensitive {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fiferrors.NewPatternError("query", q.Text, err)
	}
	re.MatchTimeout = MatchTimeout

	return &Pattern{query: q, expr: expr, re: re}, nil
}

// Query returns the query the pattern was compiled from
func (p *Pattern) Query() types.QuerySpec { return p.query }

// String returns the compiled expression
func (p *Pattern) String() string { return p.expr }

// Find returns the first match in line as character offsets, end exclusive
func (p *Pattern) Find(line string) (start, end int, ok bool) {
	m, err := p.re.FindStringMatch(line)
	if err != nil {
		debug.LogSearch("match abandoned for %q: %v\n", p.query.Text, err)
		return 0, 0, false
	}
	if m == nil {
		return 0, 0, false
	}
	return m.Index, m.Index + m.Length, true
}
