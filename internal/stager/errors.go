package stager

import (
	"fmt"
)

// ErrorType represents the type of error that occurred
type ErrorType int

const (
	// ErrorTypeUnknown is for unknown errors
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeParse is for malformed change numbers or branch specifications
	ErrorTypeParse
	// ErrorTypeDrift is when the content snapshot no longer matches the diff
	ErrorTypeDrift
	// ErrorTypeBinary is when selective application targets a binary file
	ErrorTypeBinary
	// ErrorTypeNotFound is when no diff exists for a requested path
	ErrorTypeNotFound
	// ErrorTypeNamingConflict is when a requested branch name already exists
	ErrorTypeNamingConflict
	// ErrorTypeBackend is when the version-control backend itself fails
	ErrorTypeBackend
)

// StageError represents a staging error with additional context
type StageError struct {
	Type    ErrorType
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to work
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is allows comparison with error types
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewStageError creates a new StageError
func NewStageError(errType ErrorType, message string, err error) *StageError {
	return &StageError{
		Type:    errType,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *StageError) WithContext(key string, value interface{}) *StageError {
	e.Context[key] = value
	return e
}

// NewParseError creates an error for malformed caller input
func NewParseError(description string, err error) *StageError {
	return NewStageError(ErrorTypeParse, description, err)
}

// NewDriftError creates an error for a context or deletion mismatch
// during reconstruction
func NewDriftError(position int, expected, actual string) *StageError {
	return NewStageError(ErrorTypeDrift,
		fmt.Sprintf("content mismatch at line %d: expected %q, got %q", position, expected, actual), nil).
		WithContext("position", position).
		WithContext("expected", expected).
		WithContext("actual", actual)
}

// NewOutOfBoundsError creates a drift error for a hunk starting past the
// end of the original content
func NewOutOfBoundsError(oldStart, fileLines int) *StageError {
	return NewStageError(ErrorTypeDrift,
		fmt.Sprintf("hunk old start %d is out of bounds (file has %d lines)", oldStart, fileLines), nil).
		WithContext("old_start", oldStart).
		WithContext("file_lines", fileLines)
}

// NewBinaryError creates an error for an attempted binary application
func NewBinaryError(path string) *StageError {
	return NewStageError(ErrorTypeBinary,
		fmt.Sprintf("binary file not supported: %s", path), nil).
		WithContext("path", path)
}

// NewNotFoundError creates an error for a path with no diff to apply
func NewNotFoundError(path string) *StageError {
	return NewStageError(ErrorTypeNotFound,
		fmt.Sprintf("no changes found for %s", path), nil).
		WithContext("path", path)
}

// NewNamingConflictError creates an error for an already-existing branch name
func NewNamingConflictError(branch string) *StageError {
	return NewStageError(ErrorTypeNamingConflict,
		fmt.Sprintf("branch %s already exists", branch), nil).
		WithContext("branch", branch)
}

// NewBackendError creates an error for a failed backend operation
func NewBackendError(operation string, err error) *StageError {
	return NewStageError(ErrorTypeBackend,
		fmt.Sprintf("backend operation failed: %s", operation), err).
		WithContext("operation", operation)
}
