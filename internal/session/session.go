// Package session drives one find-in-files run: it compiles the filter and
// query, builds the candidate list and scans candidates one at a time.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/fif/internal/candidates"
	"github.com/standardbeagle/fif/internal/content"
	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/filter"
	"github.com/standardbeagle/fif/internal/search"
	"github.com/standardbeagle/fif/internal/types"
)

// State of a session. Completed, Cancelled and Failed are terminal.
type State int32

const (
	Idle State = iota
	BuildingCandidateList
	Scanning
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BuildingCandidateList:
		return "building-candidate-list"
	case Scanning:
		return "scanning"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// ErrAlreadyStarted is returned when Run is called a second time
var ErrAlreadyStarted = errors.New("session already started")

// Options is what the user asked for
type Options struct {
	Query        types.QuerySpec
	Filter       types.FilterSpec
	Scope        types.Scope
	ContextLines int // Zero selects types.DefaultContextLines
}

// Deps are the collaborators a session reads from. All fields are optional.
type Deps struct {
	Project  types.ProjectFileSet
	Buffers  *types.BufferIndex
	Engine   *search.Engine
	Observer types.Observer
}

// Report is the outcome of a finished session. Results is empty unless the
// session Completed.
type Report struct {
	ID       string
	State    State
	Results  types.ResultSet
	Status   types.Status
	Warnings []error
	Elapsed  time.Duration
}

// Session is single use: create it, Run it once, read the report
type Session struct {
	id    string
	opts  Options
	deps  Deps
	state atomic.Int32
}

// New creates an idle session
func New(opts Options, deps Deps) *Session {
	if deps.Observer == nil {
		deps.Observer = types.NopObserver
	}
	if deps.Engine == nil {
		deps.Engine = search.NewEngine(search.Options{})
	}
	return &Session{
		id:   uuid.NewString(),
		opts: opts,
		deps: deps,
	}
}

// ID identifies the session in logs and reports
func (s *Session) ID() string { return s.id }

// State returns the current state. It may be called from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	debug.LogSearch("session %s: %s -> %s\n", s.id, s.State(), st)
	s.state.Store(int32(st))
}

// Run executes the session to a terminal state. Only an invalid filter or
// query is returned as an error; unreadable candidates and directories are
// reported to the observer and listed in Report.Warnings. Cancellation of ctx
// is honoured after each scanned candidate and discards all results.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	if !s.state.CompareAndSwap(int32(Idle), int32(BuildingCandidateList)) {
		return nil, ErrAlreadyStarted
	}
	start := time.Now()
	report := &Report{ID: s.id}

	finish := func(st State) *Report {
		s.setState(st)
		report.State = st
		report.Elapsed = time.Since(start)
		if st != Completed {
			report.Results = nil
			report.Status = types.Status{Cancelled: st == Cancelled}
		}
		return report
	}

	f, err := filter.CompileSpec(s.opts.Filter)
	if err != nil {
		return finish(Failed), err
	}
	pattern, err := search.Compile(s.opts.Query)
	if err != nil {
		return finish(Failed), err
	}

	observer := &recordingObserver{next: s.deps.Observer, report: report}

	enum := candidates.NewEnumerator(s.deps.Project, s.deps.Buffers, observer)
	enum.SetContextLines(s.opts.ContextLines)
	list := enum.Enumerate(s.opts.Scope, f)
	if len(list) == 0 {
		return finish(Completed), nil
	}

	s.setState(Scanning)
	source := content.NewSource(s.deps.Buffers)

	for i, c := range list {
		s.scanOne(source, pattern, c, report, observer)

		observer.Progress(types.Progress{
			Index:   i + 1,
			Total:   len(list),
			Matches: report.Status.MatchCount,
			Name:    c.Name(),
		})

		if ctx.Err() != nil {
			debug.LogSearch("session %s cancelled after %d of %d candidates\n", s.id, i+1, len(list))
			return finish(Cancelled), nil
		}
	}

	return finish(Completed), nil
}

func (s *Session) scanOne(source *content.Source, pattern *search.Pattern, c types.Candidate, report *Report, observer types.Observer) {
	lines, err := source.Lines(c)
	if err != nil {
		debug.Warn("SEARCH", "%v\n", err)
		observer.Warning(err)
		return
	}

	report.Status.FilesSearched++
	result := s.deps.Engine.Scan(pattern, c, lines)
	if result.Truncated {
		report.Status.TruncatedFiles = append(report.Status.TruncatedFiles, c)
	}
	if len(result.Matches) == 0 {
		return
	}
	report.Results = append(report.Results, result)
	report.Status.MatchCount += len(result.Matches)
}

// recordingObserver keeps warnings for the report and forwards everything
type recordingObserver struct {
	next   types.Observer
	report *Report
}

func (o *recordingObserver) Progress(p types.Progress) {
	o.next.Progress(p)
}

func (o *recordingObserver) Warning(err error) {
	o.report.Warnings = append(o.report.Warnings, err)
	o.next.Warning(err)
}
