// Package pathutil converts between the absolute paths used internally and
// the root-relative paths shown to users.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/fif/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails, the path is already
// relative or it lies outside root.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.py", "/home/user/project") → "src/main.py"
//   - ToRelative("/other/location/file.py", "/home/user/project") → "/other/location/file.py"
//   - ToRelative("src/main.py", "/home/user/project") → "src/main.py"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	// Outside the root the absolute path is clearer
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}

	return relPath
}

// ToRelativeResults converts candidate paths of a result set for display.
// Creates a new slice without modifying the original results.
func ToRelativeResults(results types.ResultSet, rootDir string) types.ResultSet {
	if len(results) == 0 {
		return results
	}

	converted := make(types.ResultSet, len(results))
	copy(converted, results)

	for i := range converted {
		converted[i].Candidate.Path = ToRelative(converted[i].Candidate.Path, rootDir)
	}

	return converted
}

// ToRelativeCandidates converts candidate paths, e.g. the truncated file list
// of a status report. Creates a new slice.
func ToRelativeCandidates(candidates []types.Candidate, rootDir string) []types.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	converted := make([]types.Candidate, len(candidates))
	copy(converted, candidates)

	for i := range converted {
		converted[i].Path = ToRelative(converted[i].Path, rootDir)
	}

	return converted
}
