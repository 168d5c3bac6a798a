// Build artifact detection from packaging files.
// Parses pyproject.toml, Cargo.toml and tsconfig.json to find output directories.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds build output directories declared by a project
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs for declared output
// directories, e.g. "dist/**"
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	patterns = append(patterns, bad.detectPythonOutputs()...)
	patterns = append(patterns, bad.detectRustOutputs()...)
	patterns = append(patterns, bad.detectTypeScriptOutputs()...)
	return DeduplicatePatterns(patterns)
}

type pyproject struct {
	Tool struct {
		Poetry struct {
			Build struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"build"`
		} `toml:"poetry"`
		Hatch struct {
			Build struct {
				Directory string `toml:"directory"`
			} `toml:"build"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

// detectPythonOutputs reads pyproject.toml build sections
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var p pyproject
	if toml.Unmarshal(data, &p) != nil {
		return nil
	}
	return outputPatterns(p.Tool.Poetry.Build.TargetDir, p.Tool.Hatch.Build.Directory)
}

type cargoManifest struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
}

// detectRustOutputs reads Cargo.toml; target/ is the implicit default
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var cargo cargoManifest
	if toml.Unmarshal(data, &cargo) != nil {
		return outputPatterns("target")
	}
	return outputPatterns("target", cargo.Build.TargetDir)
}

// detectTypeScriptOutputs reads compilerOptions.outDir from tsconfig.json
func (bad *BuildArtifactDetector) detectTypeScriptOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "tsconfig.json"))
	if err != nil {
		return nil
	}
	var tsconfig struct {
		CompilerOptions struct {
			OutDir string `json:"outDir"`
		} `json:"compilerOptions"`
	}
	if json.Unmarshal(data, &tsconfig) != nil {
		return nil
	}
	return outputPatterns(tsconfig.CompilerOptions.OutDir)
}

func outputPatterns(dirs ...string) []string {
	var patterns []string
	for _, dir := range dirs {
		dir = strings.TrimSuffix(strings.TrimPrefix(filepath.ToSlash(dir), "./"), "/")
		if dir == "" {
			continue
		}
		patterns = append(patterns, dir+"/**")
	}
	return patterns
}

// DeduplicatePatterns removes duplicate exclusion patterns, keeping order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
