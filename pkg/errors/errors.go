// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Agora.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies Agora errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeConfiguration indicates missing or contradictory configuration,
	// including absent credentials at construction time.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeProvider indicates an LLM backend rejected a request or was
	// unreachable.
	CodeProvider ErrorCode = "PROVIDER_ERROR"

	// CodeValidation indicates input that does not satisfy a declared schema.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodeToolExecution indicates a tool handler failed or panicked.
	CodeToolExecution ErrorCode = "TOOL_EXECUTION_ERROR"

	// CodeDuplicateName indicates a name collision on registration.
	CodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// CodeUnknownAgent indicates a dispatch target that was never registered.
	CodeUnknownAgent ErrorCode = "UNKNOWN_AGENT"

	// CodeUnreachable indicates a remote peer could not be contacted.
	CodeUnreachable ErrorCode = "UNREACHABLE"

	// CodeRemote indicates a remote peer answered with a failure envelope.
	CodeRemote ErrorCode = "REMOTE_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type Error struct {
	Code       ErrorCode
	Message    string
	Err        error
	Context    map[string]interface{}
	StatusCode int // For A2A/HTTP responses
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"code":    string(e.Code),
		"message": e.Message,
	}
	if e.Err != nil {
		out["cause"] = e.Err.Error()
	}
	if len(e.Context) > 0 {
		out["context"] = e.Context
	}
	return json.Marshal(out)
}

// New creates a new Error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		StatusCode: codeToStatusCode(code),
	}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// AsError attempts to convert an error to an *Error.
// Returns the error as *Error if one is in the chain, or wraps it as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the ErrorCode carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) ErrorCode {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound, CodeUnknownAgent:
		return 404
	case CodeValidation, CodeConfiguration:
		return 400
	case CodeDuplicateName:
		return 409
	case CodeUnreachable, CodeRemote:
		return 502
	default:
		return 500
	}
}
