// Package apperrors defines the coded, caller-visible errors of the service
// core. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors from this package, which the transport
// layer maps onto status codes.
//
// All codes represent terminal, non-retryable outcomes of the request that
// produced them. Storage faults are wrapped under CodeInternal and propagate
// opaquely; they are never reinterpreted as invalid input.
package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies an application error.
type Code string

const (
	// CodeAuthenticationFailed means no identity is bound to the execution
	// context, or the presented credentials could not be verified.
	CodeAuthenticationFailed Code = "authentication_failed"
	// CodeAccessDenied means the bound identity lacks a required function
	// permission or entity-level access.
	CodeAccessDenied Code = "access_denied"
	// CodeInvalidArgument means the request referenced something unresolvable
	// or violated an input rule. It carries structured validation errors.
	CodeInvalidArgument Code = "invalid_argument"
	// CodeNotFound means a requested entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means the request lost a write conflict it cannot win.
	CodeConflict Code = "conflict"
	// CodeInternal wraps unexpected infrastructure faults.
	CodeInternal Code = "internal"
)

// ValidationError describes one invalid property of a request.
// MessageTemplate is a stable key (e.g. "fact.not.valid") that callers can
// translate; Property names the offending request field.
type ValidationError struct {
	Property        string
	MessageTemplate string
}

// Error is a coded application error, optionally wrapping a cause and
// carrying structured validation errors for CodeInvalidArgument.
type Error struct {
	Code             Code
	Message          string
	ValidationErrors []ValidationError
	cause            error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// WithValidation appends a validation error and returns the receiver so
// callers can chain while constructing invalid-argument errors.
func (e *Error) WithValidation(property, messageTemplate string) *Error {
	e.ValidationErrors = append(e.ValidationErrors, ValidationError{
		Property:        property,
		MessageTemplate: messageTemplate,
	})
	return e
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error wrapping a cause. Passing a nil cause is the
// same as New.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// InvalidArgument creates an invalid-argument error with one validation
// error attached. Further errors can be chained via WithValidation.
func InvalidArgument(property, messageTemplate string) *Error {
	return New(CodeInvalidArgument, "invalid argument").WithValidation(property, messageTemplate)
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var appErr *Error
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.cause
		appErr = nil
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal if
// err carries no code.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ValidationErrorsOf returns the validation errors of the outermost coded
// error, if any.
func ValidationErrorsOf(err error) []ValidationError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ValidationErrors
	}
	return nil
}
