package types

import (
	"fmt"
	"os"
	"strings"
)

// Common system-wide constants
const (
	// Context snippet size
	DefaultContextLines = 15 // Lines shown around a match in the preview snippet
	// Rationale: fits a tooltip without scrolling while still
	// showing the enclosing statement for most matches.

	// Per-file match cap
	MaxMatchesPerFile = 1024 // Matches kept for one candidate before the scan stops
	// Rationale: a safety bound against generated or minified files
	// where every line matches; not user configurable.

	// Feasibility probe budget
	DefaultProbeBudgetMs = 100 // Wall clock budget for the "any file matches" probe

	// History
	DefaultHistorySize = 32 // Entries kept per most-recently-used history list
)

// Default markup around the matched span inside a context snippet
const (
	DefaultBeginMarker = "<b>"
	DefaultEndMarker   = "</b>"
)

// PythonSuffixes are the file suffixes whose module docstring becomes the candidate tooltip
var PythonSuffixes = []string{".py", ".py3"}

// IsPythonFile reports whether path carries one of the recognized Python suffixes
func IsPythonFile(path string) bool {
	for _, suffix := range PythonSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// ScopeKind selects which candidates a session considers
type ScopeKind uint8

const (
	ScopeProject     ScopeKind = iota // Every file of the current project
	ScopeOpenBuffers                  // Currently open plain-text buffers only
	ScopeDirectory                    // A directory tree rooted at Scope.Root
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeProject:
		return "project"
	case ScopeOpenBuffers:
		return "open-buffers"
	case ScopeDirectory:
		return "directory"
	default:
		return fmt.Sprintf("scope(%d)", uint8(k))
	}
}

// Scope is chosen once per session and never changes during it
type Scope struct {
	Kind ScopeKind
	Root string // Directory root, only meaningful for ScopeDirectory
}

// ProjectScope returns the whole-project scope
func ProjectScope() Scope { return Scope{Kind: ScopeProject} }

// OpenBuffersScope returns the open-buffers-only scope
func OpenBuffersScope() Scope { return Scope{Kind: ScopeOpenBuffers} }

// DirectoryScope returns a directory tree scope rooted at root
func DirectoryScope(root string) Scope { return Scope{Kind: ScopeDirectory, Root: root} }

func (s Scope) String() string {
	if s.Kind == ScopeDirectory {
		return s.Kind.String() + ":" + s.Root
	}
	return s.Kind.String()
}

// FilterSpec describes the optional file name filter of a session
type FilterSpec struct {
	Pattern         string
	CaseInsensitive bool
}

// QuerySpec is the raw user query plus its matching flags
type QuerySpec struct {
	Text          string
	CaseSensitive bool
	WholeWord     bool
	Regexp        bool
}

// Candidate is one searchable unit: an on-disk file or an open buffer
type Candidate struct {
	Path         string // Absolute path, empty if the item exists only as a buffer
	BufferID     string // Identifies an open document, empty for disk reads
	ContextLines int
}

// NewCandidate creates a candidate with the default context line budget
func NewCandidate(path, bufferID string) Candidate {
	return Candidate{Path: path, BufferID: bufferID, ContextLines: DefaultContextLines}
}

// Name returns a printable name for progress reports
func (c Candidate) Name() string {
	if c.Path != "" {
		return c.Path
	}
	return "buffer:" + c.BufferID
}

// MatchRecord is one matching line inside a candidate
type MatchRecord struct {
	Line    int    `json:"line"`    // 1-based
	Start   int    `json:"start"`   // 0-based, in characters
	End     int    `json:"end"`     // exclusive, in characters
	Text    string `json:"text"`    // matched line, trimmed
	Snippet string `json:"snippet"` // surrounding lines with the match marked up
}

// FileResult holds the matches of a single candidate
type FileResult struct {
	Candidate Candidate     `json:"candidate"`
	Matches   []MatchRecord `json:"matches"`
	Truncated bool          `json:"truncated,omitempty"`
	Tooltip   string        `json:"tooltip,omitempty"` // module docstring for Python files
}

// ResultSet is ordered by candidate enumeration order
type ResultSet []FileResult

// MatchCount returns the number of match records across all results
func (rs ResultSet) MatchCount() int {
	total := 0
	for _, r := range rs {
		total += len(r.Matches)
	}
	return total
}

// Status summarizes a finished session
type Status struct {
	MatchCount     int         `json:"match_count"`
	FilesSearched  int         `json:"files_searched"`
	TruncatedFiles []Candidate `json:"truncated_files,omitempty"`
	Cancelled      bool        `json:"cancelled"`
}

// EditorKind is the declared kind of the widget showing an open document
type EditorKind uint8

const (
	PlainTextEditor EditorKind = iota
	PixmapViewer
	OtherViewer
)

func (k EditorKind) String() string {
	switch k {
	case PlainTextEditor:
		return "text"
	case PixmapViewer:
		return "pixmap"
	default:
		return "other"
	}
}

// OpenBuffer is one open document as seen by the search core
type OpenBuffer struct {
	ID   string
	Path string // Absolute path, or empty for a never saved document
	Kind EditorKind
	Text func() string // Live editor content, not the file on disk
}

// ProjectFileSet is the ordered list of absolute project paths.
// Directory entries end with a path separator.
type ProjectFileSet []string

// IsDirEntry reports whether a project entry denotes a directory
func IsDirEntry(entry string) bool {
	return strings.HasSuffix(entry, string(os.PathSeparator))
}
