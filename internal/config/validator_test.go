package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/fif/internal/types"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{
			Root: "/test/root",
		},
	}

	validator := NewValidator()
	if err := validator.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatalf("ValidateAndSetDefaults failed: %v", err)
	}

	if cfg.Project.Name != "root" {
		t.Errorf("Project name should default to the root base name, got %q", cfg.Project.Name)
	}

	if cfg.Search.ContextLines != types.DefaultContextLines {
		t.Errorf("ContextLines should have been set to %d, got %d", types.DefaultContextLines, cfg.Search.ContextLines)
	}

	if cfg.Search.ProbeBudgetMs != types.DefaultProbeBudgetMs {
		t.Errorf("ProbeBudgetMs should have been set to %d, got %d", types.DefaultProbeBudgetMs, cfg.Search.ProbeBudgetMs)
	}

	if cfg.History.MaxEntries != types.DefaultHistorySize {
		t.Errorf("MaxEntries should have been set to %d, got %d", types.DefaultHistorySize, cfg.History.MaxEntries)
	}

	if cfg.ProjectFiles.WatchDebounceMs != DefaultWatchDebounceMs {
		t.Errorf("WatchDebounceMs should have been set to %d, got %d", DefaultWatchDebounceMs, cfg.ProjectFiles.WatchDebounceMs)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }},
		{"negative context", func(c *Config) { c.Search.ContextLines = -1 }},
		{"huge context", func(c *Config) { c.Search.ContextLines = 5000 }},
		{"negative probe budget", func(c *Config) { c.Search.ProbeBudgetMs = -5 }},
		{"lone begin marker", func(c *Config) { c.Search.EndMarker = "" }},
		{"negative debounce", func(c *Config) { c.ProjectFiles.WatchDebounceMs = -1 }},
		{"history too large", func(c *Config) { c.History.MaxEntries = 100000 }},
		{"bad exclude glob", func(c *Config) { c.Exclude = append(c.Exclude, "[unclosed") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/proj")
			tt.mutate(cfg)
			if err := ValidateConfig(cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadWithRoot_Layers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	global := `
search {
    context_lines 21
    probe_budget_ms 300
}
exclude "*.global"
`
	local := `
search {
    context_lines 7
}
exclude "*.local"
`
	if err := os.WriteFile(filepath.Join(home, FileName), []byte(global), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, FileName), []byte(local), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithRoot(project)
	if err != nil {
		t.Fatalf("LoadWithRoot failed: %v", err)
	}

	if cfg.Search.ContextLines != 7 {
		t.Errorf("project config should override context_lines, got %d", cfg.Search.ContextLines)
	}
	if cfg.Search.ProbeBudgetMs != 300 {
		t.Errorf("global probe_budget_ms should survive, got %d", cfg.Search.ProbeBudgetMs)
	}
	if cfg.Project.Root != project {
		t.Errorf("project root should stay %s, got %s", project, cfg.Project.Root)
	}

	want := map[string]bool{"*.global": false, "*.local": false, "*.pyc": false}
	for _, pattern := range cfg.Exclude {
		if _, ok := want[pattern]; ok {
			want[pattern] = true
		}
	}
	for pattern, found := range want {
		if !found {
			t.Errorf("exclusion %q missing from merged config", pattern)
		}
	}
}

func TestLoadWithRoot_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()

	cfg, err := LoadWithRoot(project)
	if err != nil {
		t.Fatalf("LoadWithRoot failed: %v", err)
	}
	if cfg.Search.ContextLines != types.DefaultContextLines {
		t.Errorf("expected default context lines, got %d", cfg.Search.ContextLines)
	}
	if cfg.Project.Name != filepath.Base(project) {
		t.Errorf("expected project name %q, got %q", filepath.Base(project), cfg.Project.Name)
	}
}

func TestLoadWithRoot_InvalidValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, FileName), []byte("search { context_lines 0 }\nhistory { max_entries -3 }"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWithRoot(project); err == nil {
		t.Errorf("expected validation error for negative max_entries")
	}
}

func TestBuildArtifactDetector(t *testing.T) {
	root := t.TempDir()
	pyproject := "[tool.poetry.build]\ntarget-dir = \"./out/\"\n"
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyproject), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(`{"compilerOptions": {"outDir": "lib"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	want := []string{"out/**", "lib/**"}
	if len(patterns) != len(want) {
		t.Fatalf("expected %v, got %v", want, patterns)
	}
	for i := range want {
		if patterns[i] != want[i] {
			t.Errorf("pattern %d: expected %q, got %q", i, want[i], patterns[i])
		}
	}
}
