package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fif/internal/candidates"
	"github.com/standardbeagle/fif/internal/config"
	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/filter"
	"github.com/standardbeagle/fif/internal/history"
	"github.com/standardbeagle/fif/internal/outline"
	"github.com/standardbeagle/fif/internal/project"
	"github.com/standardbeagle/fif/internal/search"
	"github.com/standardbeagle/fif/internal/session"
	"github.com/standardbeagle/fif/internal/types"
	"github.com/standardbeagle/fif/pkg/pathutil"
)

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Search a directory tree instead of the project",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Search open buffers only (see --buffer)",
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "File name regular expression, matched from the start of the name (e.g., '.*\\.py$')",
		},
		&cli.BoolFlag{
			Name:  "filter-case",
			Usage: "Match the file name filter case-sensitively",
		},
		&cli.BoolFlag{
			Name:    "case-sensitive",
			Aliases: []string{"s"},
			Usage:   "Case-sensitive search",
		},
		&cli.BoolFlag{
			Name:    "word-regexp",
			Aliases: []string{"w"},
			Usage:   "Match whole words only",
		},
		&cli.BoolFlag{
			Name:    "regex",
			Aliases: []string{"e"},
			Usage:   "Treat the query as a regular expression",
		},
		&cli.StringSliceFlag{
			Name:  "buffer",
			Usage: "Open buffer as PATH=FILE: FILE supplies the unsaved content of PATH; an empty PATH is a never saved buffer",
		},
		&cli.IntFlag{
			Name:    "context",
			Aliases: []string{"C"},
			Usage:   "Lines in each match snippet (0 uses the configured value)",
		},
		&cli.BoolFlag{
			Name:  "snippets",
			Usage: "Print the context snippet under every match",
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Report progress on stderr",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Search even when the feasibility probe finds no file",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not record this search in the history",
		},
	}
}

// searchInputs is everything a search needs besides the config
type searchInputs struct {
	opts    session.Options
	buffers *types.BufferIndex
	project types.ProjectFileSet
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: fif search <query>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	in, err := buildSearchInputs(c, cfg)
	if err != nil {
		return err
	}

	if _, err := filter.CompileSpec(in.opts.Filter); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if !c.Bool("force") {
		enum := candidates.NewEnumerator(in.project, in.buffers, types.NopObserver)
		verdict := enum.Searchability(in.opts.Query.Text, in.opts.Scope, in.opts.Filter,
			time.Duration(cfg.Search.ProbeBudgetMs)*time.Millisecond)
		if !verdict.Enabled {
			return cli.Exit(verdict.Reason, 1)
		}
	}

	parser := outline.NewParser()
	defer parser.Close()

	engine := search.NewEngine(search.Options{
		BeginMarker:       cfg.Search.BeginMarker,
		EndMarker:         cfg.Search.EndMarker,
		Parser:            parser,
		DisableDocstrings: !cfg.Search.PythonDocstrings,
	})

	// Already validated by the session; only used for highlighting
	pattern, _ := search.Compile(in.opts.Query)
	observer := types.ObserverFuncs{
		OnWarning: func(err error) {
			fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
		},
	}
	if c.Bool("progress") {
		observer.OnProgress = func(p types.Progress) {
			fmt.Fprintf(c.App.ErrWriter, "[%d/%d] %d matches: %s\n",
				p.Index, p.Total, p.Matches, pathutil.ToRelative(p.Name, cfg.Project.Root))
		}
	}

	s := session.New(in.opts, session.Deps{
		Project:  in.project,
		Buffers:  in.buffers,
		Engine:   engine,
		Observer: observer,
	})
	debug.LogSearch("session %s: query %q scope %s\n", s.ID(), in.opts.Query.Text, in.opts.Scope)

	report, err := s.Run(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if !c.Bool("no-history") {
		recordHistory(c, cfg, in.opts)
	}

	if report.State == session.Cancelled {
		return cli.Exit("search cancelled", 130)
	}

	if c.Bool("json") {
		return writeJSONReport(c, cfg.Project.Root, report)
	}
	newPrinter(c.App.Writer, cfg.Project.Root, pattern).report(report, c.Bool("snippets"))
	return nil
}

// buildSearchInputs turns flags into session options, open buffers and,
// for the project scope, the project file set
func buildSearchInputs(c *cli.Context, cfg *config.Config) (*searchInputs, error) {
	contextLines := c.Int("context")
	if contextLines <= 0 {
		contextLines = cfg.Search.ContextLines
	}

	in := &searchInputs{
		opts: session.Options{
			Query: types.QuerySpec{
				Text:          c.Args().First(),
				CaseSensitive: c.Bool("case-sensitive"),
				WholeWord:     c.Bool("word-regexp"),
				Regexp:        c.Bool("regex"),
			},
			Filter: types.FilterSpec{
				Pattern:         c.String("filter"),
				CaseInsensitive: !c.Bool("filter-case"),
			},
			ContextLines: contextLines,
		},
	}

	buffers, err := parseBuffers(c.StringSlice("buffer"))
	if err != nil {
		return nil, err
	}
	in.buffers = buffers

	switch {
	case c.IsSet("dir"):
		in.opts.Scope = types.DirectoryScope(absOrSelf(c.String("dir")))
	case c.Bool("open"):
		in.opts.Scope = types.OpenBuffersScope()
	default:
		in.opts.Scope = types.ProjectScope()
		files, err := project.Scan(cfg.Project.Root, project.Options{
			Excludes:         cfg.Exclude,
			RespectGitignore: cfg.ProjectFiles.RespectGitignore,
		})
		if err != nil {
			return nil, err
		}
		in.project = files
	}

	return in, nil
}

// parseBuffers reads PATH=FILE specs into open plain-text buffers. The buffer
// content is taken from FILE once, at startup.
func parseBuffers(specs []string) (*types.BufferIndex, error) {
	index := types.NewBufferIndex()
	for _, spec := range specs {
		path, file, ok := strings.Cut(spec, "=")
		if !ok || file == "" {
			return nil, fmt.Errorf("invalid --buffer %q, expected PATH=FILE", spec)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read buffer content: %w", err)
		}
		if path != "" {
			path = absOrSelf(path)
		}
		text := string(data)
		index.Add(types.OpenBuffer{
			ID:   uuid.NewString(),
			Path: path,
			Kind: types.PlainTextEditor,
			Text: func() string { return text },
		})
	}
	return index, nil
}

// recordHistory stores the inputs of a search; failures only warn
func recordHistory(c *cli.Context, cfg *config.Config, opts session.Options) {
	path, err := historyPath(cfg)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
		return
	}

	h, err := history.Load(path, cfg.History.MaxEntries)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
		h = history.New(cfg.History.MaxEntries)
	}

	dir := ""
	if opts.Scope.Kind == types.ScopeDirectory {
		dir = opts.Scope.Root
	}
	h.Record(opts.Query.Text, dir, opts.Filter.Pattern)

	if err := h.Save(path); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: failed to save history: %v\n", err)
	}
}

func historyPath(cfg *config.Config) (string, error) {
	if cfg.History.File != "" {
		return cfg.History.File, nil
	}
	return history.DefaultPath(cfg.Project.Root)
}

type jsonReport struct {
	ID        string          `json:"id"`
	State     string          `json:"state"`
	Results   types.ResultSet `json:"results"`
	Status    types.Status    `json:"status"`
	Warnings  []string        `json:"warnings,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
}

func writeJSONReport(c *cli.Context, root string, report *session.Report) error {
	status := report.Status
	status.TruncatedFiles = pathutil.ToRelativeCandidates(status.TruncatedFiles, root)

	results := pathutil.ToRelativeResults(report.Results, root)
	if results == nil {
		results = types.ResultSet{}
	}

	out := jsonReport{
		ID:        report.ID,
		State:     report.State.String(),
		Results:   results,
		Status:    status,
		ElapsedMs: report.Elapsed.Milliseconds(),
	}
	for _, w := range report.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}

	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
