package models

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// Script compilation failures.
	MalformedToken          ErrorCode = "MalformedToken"
	EmptyOrMalformedProgram ErrorCode = "EmptyOrMalformedProgram"
	UnsortedSplitPoints     ErrorCode = "UnsortedSplitPoints"

	// Oracle failures.
	ReadPastEndOfFile ErrorCode = "ReadPastEndOfFile"

	// Cluster and source failures.
	PortNotExposed    ErrorCode = "PortNotExposed"
	SourceUnavailable ErrorCode = "SourceUnavailable"

	// Verification failures.
	ReadVerificationFailed  ErrorCode = "ReadVerificationFailed"
	WriteVerificationFailed ErrorCode = "WriteVerificationFailed"

	// Any external process (compose, vagrant, in-container exec, the
	// system under test) exiting non-zero.
	ExternalCommandFailed ErrorCode = "ExternalCommandFailed"
)

type HasHint interface {
	// Hint A human-readable string that advises the user on how they might solve the error.
	Hint() string
}

type HasDetails interface {
	// Details An extra set of metadata provided by the error.
	Details() map[string]string
}

type HasCode interface {
	// Code a stable identifier for the failure kind.
	Code() ErrorCode
}

// BaseError is a custom error type that provides additional fields and
// methods for more detailed error handling. It implements the error
// interface, as well as additional interfaces for providing a hint, a
// failure-kind code, and extra details.
type BaseError struct {
	message   string
	hint      string
	component string
	details   map[string]string
	code      ErrorCode
}

// IsBaseError is a helper function that checks if an error is a BaseError.
func IsBaseError(err error) bool {
	var baseError *BaseError
	ok := errors.As(err, &baseError)
	return ok
}

// NewBaseError is a constructor function that creates a new BaseError with
// only the message field set.
func NewBaseError(format string, a ...any) *BaseError {
	return &BaseError{
		component: "itt",
		message:   fmt.Sprintf(format, a...),
	}
}

// WithHint is a method that sets the hint field of BaseError and returns
// the BaseError itself for chaining.
func (e *BaseError) WithHint(hint string) *BaseError {
	e.hint = hint
	return e
}

// WithDetails is a method that sets the details field of BaseError and
// returns the BaseError itself for chaining. Existing details are kept
// unless overwritten by the new set.
func (e *BaseError) WithDetails(details map[string]string) *BaseError {
	if e.details == nil {
		e.details = make(map[string]string, len(details))
	}
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

// WithDetail adds a single key/value pair to the details field and returns
// the BaseError itself for chaining.
func (e *BaseError) WithDetail(key, value string) *BaseError {
	return e.WithDetails(map[string]string{key: value})
}

// WithCode is a method that sets the code field of BaseError and
// returns the BaseError itself for chaining.
func (e *BaseError) WithCode(code ErrorCode) *BaseError {
	e.code = code
	return e
}

// WithComponent is a method that sets the component field of BaseError and
// returns the BaseError itself for chaining.
func (e *BaseError) WithComponent(component string) *BaseError {
	e.component = component
	return e
}

// Error is a method that returns the message field of BaseError. This
// method makes BaseError satisfy the error interface.
func (e *BaseError) Error() string {
	return e.message
}

// Hint is a method that returns the hint field of BaseError.
func (e *BaseError) Hint() string {
	return e.hint
}

// Details is a method that returns the details field of BaseError.
func (e *BaseError) Details() map[string]string {
	return e.details
}

// Code returns a unique code to identify the failure kind.
func (e *BaseError) Code() ErrorCode {
	return e.code
}

// Component is a method that returns the component field of BaseError.
func (e *BaseError) Component() string {
	return e.component
}

// IsErrorWithCode reports whether err, or any error it wraps, is a
// BaseError carrying the given code.
func IsErrorWithCode(err error, code ErrorCode) bool {
	var baseErr *BaseError
	if errors.As(err, &baseErr) {
		return baseErr.Code() == code
	}
	return false
}
