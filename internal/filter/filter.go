// Package filter compiles the optional file name filter of a search session.
//
// The filter is a regular expression tested with "match" semantics: it must
// match at the start of the candidate path string but need not consume all of
// it. A filter selecting Python sources is therefore written `.*\.py$`.
package filter

import (
	"time"

	"github.com/dlclark/regexp2"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/types"
)

// MatchTimeout bounds a single path test against a pathological expression
const MatchTimeout = time.Second

// Filter decides whether a candidate path should be searched.
// A nil *Filter and the filter compiled from an empty pattern match everything.
type Filter struct {
	pattern string
	re      *regexp2.Regexp
}

// Compile compiles a filename pattern. An empty pattern compiles to an
// always-match filter. A malformed expression yields an error matching
// errors.ErrInvalidPattern.
func Compile(pattern string, caseInsensitive bool) (*Filter, error) {
	if pattern == "" {
		return &Filter{}, nil
	}

	opts := regexp2.None
	if caseInsensitive {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(`\A(?:`+pattern+`)`, opts)
	if err != nil {
		return nil, fiferrors.NewPatternError("filter", pattern, err)
	}
	re.MatchTimeout = MatchTimeout

	return &Filter{pattern: pattern, re: re}, nil
}

// CompileSpec compiles a FilterSpec
func CompileSpec(spec types.FilterSpec) (*Filter, error) {
	return Compile(spec.Pattern, spec.CaseInsensitive)
}

// Match tests a candidate path against the filter
func (f *Filter) Match(path string) bool {
	if f == nil || f.re == nil {
		return true
	}
	matched, err := f.re.MatchString(path)
	if err != nil {
		// Timed out; treat as not matching rather than stalling enumeration
		return false
	}
	return matched
}

// MatchAll reports whether the filter accepts every path
func (f *Filter) MatchAll() bool {
	return f == nil || f.re == nil
}

// Pattern returns the source pattern, empty for the always-match filter
func (f *Filter) Pattern() string {
	if f == nil {
		return ""
	}
	return f.pattern
}
