// internal/portal/errors.go
package portal

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a specific failure condition at the portal boundary
type ErrorCode string

const (
	CodeAuthFailure ErrorCode = "AUTH_FAILURE"
	CodeTransport   ErrorCode = "TRANSPORT"
	CodeTimeout     ErrorCode = "TIMEOUT"
)

// Sentinels for errors.Is. Matching is by code, so any *Error with the same
// code compares equal regardless of message or underlying cause.
var (
	ErrAuthFailure = &Error{Code: CodeAuthFailure, Message: "invalid username or password"}
	ErrTransport   = &Error{Code: CodeTransport, Message: "transport failure"}
	ErrTimeout     = &Error{Code: CodeTimeout, Message: "request timeout"}
)

// Error wraps portal failures with a code and optional context
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a new Error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// transportError classifies a network-level failure as either a timeout or
// a generic transport failure.
func transportError(message string, err error) *Error {
	if isTimeoutError(err) {
		return NewError(CodeTimeout, message, err)
	}
	return NewError(CodeTransport, message, err)
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return false
}
