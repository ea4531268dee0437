// Package errors provides structured error types for the sbomwalk application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the fetch pipeline
//   - Machine-readable error codes for programmatic handling
//   - Permanent/transient classification for retry decisions and reporting
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND / FORBIDDEN: Resource access failures
//   - NETWORK_* / RATE_LIMITED: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid repository ref: %s", ref)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
//
// # Classification
//
// [Classification] distinguishes failures that will never succeed on retry
// (missing resources, revoked access, malformed responses) from those that
// may (rate limits, timeouts, server errors). The fetch pipeline uses this
// split both for its retry policy and for the final run report.
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
	ErrCodeInvalidPURL   Code = "INVALID_PURL"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource access errors
	ErrCodeNotFound  Code = "NOT_FOUND"
	ErrCodeForbidden Code = "FORBIDDEN"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Response errors
	ErrCodeBadResponse Code = "BAD_RESPONSE"

	// Retry bookkeeping
	ErrCodeRetriesExhausted Code = "RETRIES_EXHAUSTED"

	// Credential errors
	ErrCodeNoToken Code = "NO_TOKEN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Class is the retry classification of an error.
type Class string

const (
	// ClassPermanent marks failures that will not succeed on retry.
	ClassPermanent Class = "permanent"

	// ClassTransient marks failures that may succeed later.
	ClassTransient Class = "transient"
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

// Classification maps an error code to its retry class. Errors without a
// structured code default to permanent: an unknown failure retried forever
// is worse than one reported once.
func Classification(err error) Class {
	switch GetCode(err) {
	case ErrCodeRateLimited, ErrCodeNetwork, ErrCodeTimeout, ErrCodeRetriesExhausted:
		return ClassTransient
	default:
		return ClassPermanent
	}
}
