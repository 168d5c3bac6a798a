package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	fiferrors "github.com/standardbeagle/fif/internal/errors"
	"github.com/standardbeagle/fif/internal/types"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setSmartDefaults(cfg)

	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return fiferrors.NewConfigError("project", cfg.Project.Root, err)
	}

	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return fiferrors.NewConfigError("search", "", err)
	}

	if err := v.validateProjectFilesConfig(&cfg.ProjectFiles); err != nil {
		return fiferrors.NewConfigError("project_files", "", err)
	}

	if err := v.validateHistoryConfig(&cfg.History); err != nil {
		return fiferrors.NewConfigError("history", "", err)
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fiferrors.NewConfigError("exclude", pattern, errors.New("invalid glob pattern"))
		}
	}

	return nil
}

// validateProjectConfig validates project configuration
func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

// validateSearchConfig validates search configuration
func (v *Validator) validateSearchConfig(search *Search) error {
	if search.ContextLines < 1 || search.ContextLines > 1000 {
		return fmt.Errorf("ContextLines must be between 1 and 1000, got %d", search.ContextLines)
	}

	if search.ProbeBudgetMs < 1 || search.ProbeBudgetMs > 60000 {
		return fmt.Errorf("ProbeBudgetMs must be between 1 and 60000, got %d", search.ProbeBudgetMs)
	}

	if (search.BeginMarker == "") != (search.EndMarker == "") {
		return errors.New("BeginMarker and EndMarker must be set together")
	}

	return nil
}

// validateProjectFilesConfig validates project file set configuration
func (v *Validator) validateProjectFilesConfig(pf *ProjectFiles) error {
	if pf.WatchDebounceMs < 0 {
		return fmt.Errorf("WatchDebounceMs cannot be negative, got %d", pf.WatchDebounceMs)
	}
	return nil
}

// validateHistoryConfig validates history configuration
func (v *Validator) validateHistoryConfig(h *History) error {
	if h.MaxEntries < 1 || h.MaxEntries > 1000 {
		return fmt.Errorf("MaxEntries must be between 1 and 1000, got %d", h.MaxEntries)
	}
	return nil
}

// setSmartDefaults fills settings left at their zero value
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Project.Name == "" && cfg.Project.Root != "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}

	if cfg.Search.ContextLines == 0 {
		cfg.Search.ContextLines = types.DefaultContextLines
	}

	if cfg.Search.ProbeBudgetMs == 0 {
		cfg.Search.ProbeBudgetMs = types.DefaultProbeBudgetMs
	}

	if cfg.ProjectFiles.WatchDebounceMs == 0 {
		cfg.ProjectFiles.WatchDebounceMs = DefaultWatchDebounceMs
	}

	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = types.DefaultHistorySize
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
