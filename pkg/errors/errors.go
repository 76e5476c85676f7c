// Package errors provides structured error types for mesh2vtk.
//
// Every failure of a conversion carries a machine-readable [Code] so that the
// CLI (and any other caller of the pipeline) can tell a bad user filter from a
// writer failure without string matching.
//
// # Error Codes
//
//   - SELECTION: invalid group index, invalid absolute value, empty selection
//   - CONFIGURATION: invalid multiplier, resolution or output encoding
//   - GEOMETRY: voxel count disagrees with boundary-derived cell count
//   - CONSISTENCY: resolved selection has no backing group data
//   - WRITER: failure reported by the dataset writer
//   - INVALID_INPUT / NOT_FOUND / UNSUPPORTED: mesh source problems
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSelection, "index %d out of range [0, %d]", i, n-1)
//	if errors.Is(err, errors.ErrCodeSelection) {
//	    // Handle bad filter
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeWriter, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Conversion errors
	ErrCodeSelection     Code = "SELECTION"
	ErrCodeConfiguration Code = "CONFIGURATION"
	ErrCodeGeometry      Code = "GEOMETRY"
	ErrCodeConsistency   Code = "CONSISTENCY"
	ErrCodeWriter        Code = "WRITER"

	// Mesh source errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error decides; codes of wrapped causes are not consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
