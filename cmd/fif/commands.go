package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fif/internal/candidates"
	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/history"
	"github.com/standardbeagle/fif/internal/outline"
	"github.com/standardbeagle/fif/internal/project"
	"github.com/standardbeagle/fif/internal/types"
	"github.com/standardbeagle/fif/pkg/pathutil"
)

func probeCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	var scope types.Scope
	var files types.ProjectFileSet
	switch {
	case c.IsSet("dir"):
		scope = types.DirectoryScope(absOrSelf(c.String("dir")))
	case c.Bool("open"):
		scope = types.OpenBuffersScope()
	default:
		scope = types.ProjectScope()
		files, err = project.Scan(cfg.Project.Root, project.Options{
			Excludes:         cfg.Exclude,
			RespectGitignore: cfg.ProjectFiles.RespectGitignore,
		})
		if err != nil {
			return err
		}
	}

	enum := candidates.NewEnumerator(files, nil, types.NopObserver)
	spec := types.FilterSpec{
		Pattern:         c.String("filter"),
		CaseInsensitive: !c.Bool("filter-case"),
	}
	verdict := enum.Searchability(c.Args().First(), scope, spec,
		time.Duration(cfg.Search.ProbeBudgetMs)*time.Millisecond)

	fmt.Fprintln(c.App.Writer, verdict.Reason)
	if !verdict.Enabled {
		return cli.Exit("", 1)
	}
	return nil
}

func outlineCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: fif outline <file.py>")
	}

	path := c.Args().First()
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	parser := outline.NewParserWithCache(0)
	defer parser.Close()

	info := parser.Parse(source)
	debug.LogOutline("%s: %d classes, %d functions, ok=%v\n", path, len(info.Classes), len(info.Functions), info.IsOK)

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	}

	printOutline(c, info)
	return nil
}

func printOutline(c *cli.Context, info *outline.ModuleInfo) {
	w := c.App.Writer

	if info.Docstring != "" {
		first, _, _ := strings.Cut(info.Docstring, "\n")
		fmt.Fprintf(w, "\"\"\"%s\"\"\"\n", first)
	}
	for _, imp := range info.Imports {
		if len(imp.What) > 0 {
			fmt.Fprintf(w, "%4d  from %s import %s\n", imp.Line, imp.Module, strings.Join(imp.What, ", "))
		} else {
			fmt.Fprintf(w, "%4d  import %s\n", imp.Line, imp.Module)
		}
	}
	for _, g := range info.Globals {
		fmt.Fprintf(w, "%4d  %s\n", g.Line, g.Name)
	}
	for _, cls := range info.Classes {
		if cls.Bases != "" {
			fmt.Fprintf(w, "%4d  class %s(%s)\n", cls.Line, cls.Name, cls.Bases)
		} else {
			fmt.Fprintf(w, "%4d  class %s\n", cls.Line, cls.Name)
		}
		for _, m := range cls.Methods {
			fmt.Fprintf(w, "%4d      %s\n", m.Line, signature(m))
		}
	}
	for _, fn := range info.Functions {
		fmt.Fprintf(w, "%4d  %s\n", fn.Line, signature(fn))
	}
	if !info.IsOK {
		fmt.Fprintln(c.App.ErrWriter, "warning: module has syntax errors, outline is partial")
	}
}

func signature(fn outline.Function) string {
	prefix := "def "
	if fn.Async {
		prefix = "async def "
	}
	return prefix + fn.Name + "(" + fn.Arguments + ")"
}

func historyCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	path, err := historyPath(cfg)
	if err != nil {
		return err
	}

	if c.Bool("clear") {
		if err := history.New(cfg.History.MaxEntries).Save(path); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "History cleared: %s\n", path)
		return nil
	}

	h, err := history.Load(path, cfg.History.MaxEntries)
	if err != nil {
		return err
	}

	printList := func(title string, items []string) {
		fmt.Fprintf(c.App.Writer, "%s:\n", title)
		if len(items) == 0 {
			fmt.Fprintln(c.App.Writer, "  (none)")
		}
		for _, item := range items {
			fmt.Fprintf(c.App.Writer, "  %s\n", item)
		}
	}
	printList("Queries", h.Queries)
	printList("Directories", h.Dirs)
	printList("Filters", h.Masks)
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	set, err := project.NewFileSet(cfg.Project.Root, project.Options{
		Excludes:         cfg.Exclude,
		RespectGitignore: cfg.ProjectFiles.RespectGitignore,
	})
	if err != nil {
		return err
	}

	watcher, err := project.NewWatcher(set, time.Duration(cfg.ProjectFiles.WatchDebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}

	root := set.Root()
	watcher.OnChange(func(changes []project.Change) {
		for _, change := range changes {
			mark := "+"
			if change.Kind == project.Removed {
				mark = "-"
			}
			fmt.Fprintf(c.App.Writer, "%s %s\n", mark, pathutil.ToRelative(change.Path, root))
		}
	})
	watcher.OnError(func(err error) {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	})

	if err := watcher.Start(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "Watching %d entries under %s\n", set.Len(), root)

	<-c.Context.Done()
	return watcher.Stop()
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "project {\n    root %q\n    name %q\n}\n", cfg.Project.Root, cfg.Project.Name)
	fmt.Fprintf(w, "search {\n")
	fmt.Fprintf(w, "    context_lines %d\n", cfg.Search.ContextLines)
	fmt.Fprintf(w, "    begin_marker %q\n", cfg.Search.BeginMarker)
	fmt.Fprintf(w, "    end_marker %q\n", cfg.Search.EndMarker)
	fmt.Fprintf(w, "    probe_budget_ms %d\n", cfg.Search.ProbeBudgetMs)
	fmt.Fprintf(w, "    python_docstrings %v\n", cfg.Search.PythonDocstrings)
	fmt.Fprintf(w, "}\n")
	fmt.Fprintf(w, "project_files {\n    respect_gitignore %v\n    watch_debounce_ms %d\n}\n",
		cfg.ProjectFiles.RespectGitignore, cfg.ProjectFiles.WatchDebounceMs)
	fmt.Fprintf(w, "history {\n    max_entries %d\n", cfg.History.MaxEntries)
	if cfg.History.File != "" {
		fmt.Fprintf(w, "    file %q\n", cfg.History.File)
	}
	fmt.Fprintf(w, "}\n")
	fmt.Fprintf(w, "exclude {\n")
	for _, pattern := range cfg.Exclude {
		fmt.Fprintf(w, "    %q\n", pattern)
	}
	fmt.Fprintf(w, "}\n")
	return nil
}
