package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the find-in-files core
type ErrorType string

const (
	// Session level errors
	ErrorTypePattern ErrorType = "invalid_pattern"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeEncoding     ErrorType = "encoding"
	ErrorTypeDirectory    ErrorType = "directory_unreadable"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Parse errors
	ErrorTypeParse ErrorType = "parse"
)

// Sentinels for errors.Is checks across package boundaries
var (
	// ErrInvalidPattern is the only error that aborts a whole session
	ErrInvalidPattern = errors.New("invalid pattern")

	ErrCandidateUnreadable = errors.New("candidate unreadable")
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	ErrNotFound            = errors.New("not found")
	ErrNotReadable         = errors.New("not readable")
)

// PatternError represents a filter or query expression that failed to compile
type PatternError struct {
	Type       ErrorType
	Kind       string // "filter" or "query"
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewPatternError creates a new pattern compile error
func NewPatternError(kind, pattern string, err error) *PatternError {
	return &PatternError{
		Type:       ErrorTypePattern,
		Kind:       kind,
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error
func (e *PatternError) Unwrap() error {
	return e.Underlying
}

// Is makes every PatternError match ErrInvalidPattern
func (e *PatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// FileError represents a candidate whose content could not be obtained
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error classified from the underlying cause
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       classifyFileError(err),
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewEncodingError creates a file error for content that is not valid text
func NewEncodingError(path string) *FileError {
	return &FileError{
		Type:       ErrorTypeEncoding,
		Path:       path,
		Operation:  "decode",
		Underlying: errors.New("content is not valid UTF-8"),
		Timestamp:  time.Now(),
	}
}

// classifyFileError maps an os error onto the file error taxonomy
func classifyFileError(err error) ErrorType {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrorTypeFileNotFound
	}
	return ErrorTypePermission
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// Is maps the file error onto NotFound / NotReadable and CandidateUnreadable
func (e *FileError) Is(target error) bool {
	switch target {
	case ErrCandidateUnreadable:
		return true
	case ErrNotFound:
		return e.Type == ErrorTypeFileNotFound
	case ErrNotReadable:
		return e.Type != ErrorTypeFileNotFound
	}
	return false
}

// DirectoryError represents a directory that could not be listed during enumeration
type DirectoryError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewDirectoryError creates a new directory error
func NewDirectoryError(path string, err error) *DirectoryError {
	return &DirectoryError{
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *DirectoryError) Error() string {
	return fmt.Sprintf("cannot list directory %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *DirectoryError) Unwrap() error {
	return e.Underlying
}

// Is makes every DirectoryError match ErrDirectoryUnreadable
func (e *DirectoryError) Is(target error) bool {
	return target == ErrDirectoryUnreadable
}

// ParseError represents a source file the brief parser could not handle
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, line, column int, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Line:       line,
		Column:     column,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
