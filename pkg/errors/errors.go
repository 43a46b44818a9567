// Package errors provides structured error types for the causetree pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The pipeline is a one-shot batch job: every code below is fatal for the
// enclosing year/revision batch. There is no skip-and-continue mode, since
// every output row feeds a single shared visualization and partially
// categorized data would silently skew its proportions.
//
//   - MALFORMED_CODE: a diagnostic code fails to parse its numeric chapter
//   - CATEGORY_OVERLAP: two category ranges of one revision cover the same code
//   - UNCLASSIFIED_EXCESS: too much of a year's death count left unclassified
//   - UNMAPPED_DESCRIPTION: description-table join failure for a year
//   - LAYOUT_INVARIANT: cumulative fraction out of bounds during layout
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedCode, "code %q has no leading digits", raw)
//	if errors.Is(err, errors.ErrCodeMalformedCode) {
//	    // Handle parse failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Classification errors
	ErrCodeMalformedCode      Code = "MALFORMED_CODE"
	ErrCodeCategoryOverlap    Code = "CATEGORY_OVERLAP"
	ErrCodeUnknownRevision    Code = "UNKNOWN_REVISION"
	ErrCodeUnclassifiedExcess Code = "UNCLASSIFIED_EXCESS"

	// Aggregation errors
	ErrCodeUnmappedDescription Code = "UNMAPPED_DESCRIPTION"

	// Layout errors
	ErrCodeLayoutInvariant Code = "LAYOUT_INVARIANT"

	// Input and configuration errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
