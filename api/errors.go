// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types for the hioload-ring library.
//
// Ring operations themselves never return errors: out-of-range reads clamp,
// pops report emptiness through a bool, and contract violations are
// documented preconditions. Errors surface only at the edges — constructor
// and allocator argument checks, arena teardown, and the async sink.

package api

import "fmt"

// ErrSinkClosed reports an operation on a closed sink.
var ErrSinkClosed = fmt.Errorf("sink is closed")

// ErrorCode classifies structured errors.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeClosed
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
