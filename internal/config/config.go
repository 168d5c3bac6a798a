package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/fif/internal/types"
)

// FileName is the KDL configuration file looked up in the project root and
// in the home directory
const FileName = ".fif.kdl"

// DefaultWatchDebounceMs is the quiet period of the project watcher
const DefaultWatchDebounceMs = 100

type Config struct {
	Version      int
	Project      Project
	Search       Search
	ProjectFiles ProjectFiles
	History      History
	Exclude      []string
}

type Project struct {
	Root string
	Name string
}

type Search struct {
	ContextLines     int    // Lines in a match preview snippet
	BeginMarker      string // Inserted before the matched span
	EndMarker        string // Inserted after the matched span
	ProbeBudgetMs    int    // Wall clock budget of the "any file matches" probe
	PythonDocstrings bool   // Attach module docstrings to Python results
}

type ProjectFiles struct {
	RespectGitignore bool // Apply the root .gitignore on top of Exclude
	WatchDebounceMs  int  // Debounce time for file change events
}

type History struct {
	MaxEntries int    // Entries kept per most-recently-used list
	File       string // Empty selects the per-project default location
}

// Default returns the built-in configuration for root
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Search: Search{
			ContextLines:     types.DefaultContextLines,
			BeginMarker:      types.DefaultBeginMarker,
			EndMarker:        types.DefaultEndMarker,
			ProbeBudgetMs:    types.DefaultProbeBudgetMs,
			PythonDocstrings: true,
		},
		ProjectFiles: ProjectFiles{
			RespectGitignore: true,
			WatchDebounceMs:  DefaultWatchDebounceMs,
		},
		History: History{
			MaxEntries: types.DefaultHistorySize,
		},
		Exclude: DefaultExclusions(),
	}
}

// DefaultExclusions hides dot entries, editor backups and compiled Python
func DefaultExclusions() []string {
	return []string{
		".*",
		"*~",
		"*.swp",
		"*.pyc",
		"*.pyo",
		"__pycache__",
	}
}

// Load reads the configuration for the current directory
func Load() (*Config, error) {
	return LoadWithRoot("")
}

// LoadWithRoot layers the global ~/.fif.kdl and then rootDir/.fif.kdl over
// the defaults. Later layers override scalar settings; exclusions from all
// layers are combined.
func LoadWithRoot(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}
	absRoot, err := filepath.Abs(searchDir)
	if err != nil {
		absRoot = searchDir
	}

	cfg := Default(absRoot)

	// Step 1: global base config
	if homeDir, err := os.UserHomeDir(); err == nil && filepath.Clean(homeDir) != absRoot {
		if err := ApplyKDLFile(cfg, homeDir); err != nil {
			return nil, err
		}
		// The global file cannot move the project
		cfg.Project.Root = absRoot
	}

	// Step 2: project config, which may set its own root
	if err := ApplyKDLFile(cfg, absRoot); err != nil {
		return nil, err
	}

	cfg.Exclude = DeduplicatePatterns(cfg.Exclude)
	cfg.EnrichExclusionsWithBuildArtifacts()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnrichExclusionsWithBuildArtifacts adds build output directories declared
// by the project's packaging files to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	if detected := detector.DetectOutputDirectories(); len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}
