package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fif/internal/config"
	"github.com/standardbeagle/fif/internal/debug"
	"github.com/standardbeagle/fif/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithRoot(c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excludeFlags...))
		if err := config.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}
	if c.Bool("no-gitignore") {
		cfg.ProjectFiles.RespectGitignore = false
	}

	return cfg, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "fif",
		Usage:                  "Find text in project files, directories and open buffers",
		Version:                version.Current().Short(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (defaults to the current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Hide project entries matching glob patterns (e.g., --exclude 'build/**')",
			},
			&cli.BoolFlag{
				Name:  "no-gitignore",
				Usage: "Do not apply the project .gitignore",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Write debug information to stderr (requires DEBUG=1)",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug information to a log file in the temp directory",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search for text in files",
				ArgsUsage: "<query>",
				Flags:     searchFlags(),
				Action:    searchCommand,
			},
			{
				Name:      "probe",
				Usage:     "Report whether a search would be offered for the given inputs",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Search a directory tree instead of the project",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Search open buffers only",
					},
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "File name regular expression, matched from the start of the name",
					},
					&cli.BoolFlag{
						Name:  "filter-case",
						Usage: "Match the file name filter case-sensitively",
					},
				},
				Action: probeCommand,
			},
			{
				Name:      "outline",
				Usage:     "Print the brief structure of a Python module",
				ArgsUsage: "<file.py>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: outlineCommand,
			},
			{
				Name:  "history",
				Usage: "Show recently used queries, directories and filters",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Forget all entries",
					},
				},
				Action: historyCommand,
			},
			{
				Name:   "watch",
				Usage:  "Track project file changes until interrupted",
				Action: watchCommand,
			},
			{
				Name:   "config",
				Usage:  "Show the effective configuration",
				Action: configShowCommand,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			} else if c.Bool("verbose") {
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Action: func(c *cli.Context) error {
			// Default to search if a query is given
			if c.NArg() > 0 {
				return searchCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}
}

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.Current())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// absOrSelf resolves path against the working directory when possible
func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
