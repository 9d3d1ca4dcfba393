// Package errors provides structured error types for memviz.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the core, the CLI, and the HTTP endpoint
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The diagram pipeline reports five domain failures:
//
//   - MALFORMED_NODE: a node description has an unknown kind or an
//     inconsistent shape. The scene builder recovers locally.
//   - UNSUPPORTED_SHAPE_ANGLE: boundary sector dispatch fell through. Never
//     recovered; indicates a geometry bug.
//   - LAYOUT_OVERFLOW: the grid ran out of cells. Fatal to one snapshot.
//   - REORDER_REJECTED: a reorder was attempted on a fixed-order collection.
//   - EXPORT_PRECONDITION: export was called on an unpositioned scene.
//
// INVALID_* codes cover rejected input and configuration.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLayoutOverflow, "no free cell for %q", name)
//	if errors.Is(err, errors.ErrCodeLayoutOverflow) {
//	    // retry with a larger grid
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidShape  Code = "INVALID_SHAPE"

	// Diagram pipeline errors
	ErrCodeMalformedNode         Code = "MALFORMED_NODE"
	ErrCodeUnsupportedShapeAngle Code = "UNSUPPORTED_SHAPE_ANGLE"
	ErrCodeLayoutOverflow        Code = "LAYOUT_OVERFLOW"
	ErrCodeReorderRejected       Code = "REORDER_REJECTED"
	ErrCodeExportPrecondition    Code = "EXPORT_PRECONDITION"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err aborts a snapshot's pipeline. Malformed nodes
// and rejected reorders are reported to the caller but do not invalidate the
// rest of the diagram.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedNode, ErrCodeReorderRejected:
		return false
	default:
		return err != nil
	}
}
