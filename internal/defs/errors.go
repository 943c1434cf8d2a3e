package defs

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an error returned by an operation.
type ErrorCode int

// error codes.
const (
	ErrorCodeUnexpected ErrorCode = iota
	ErrorCodeNotFound
	ErrorCodeTypeMismatch
	ErrorCodeInvalidMediaType
	ErrorCodeUnsupportedType
	ErrorCodeUnsupportedOperation
	ErrorCodeUnsupportedCommand
	ErrorCodeCommandExecution
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeUnexpected:           "Unexpected",
	ErrorCodeNotFound:             "NotFound",
	ErrorCodeTypeMismatch:         "TypeMismatch",
	ErrorCodeInvalidMediaType:     "InvalidMediaType",
	ErrorCodeUnsupportedType:      "UnsupportedType",
	ErrorCodeUnsupportedOperation: "UnsupportedOperation",
	ErrorCodeUnsupportedCommand:   "UnsupportedCommand",
	ErrorCodeCommandExecution:     "CommandExecutionError",
}

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return "Unexpected"
}

// Error is a classified error.
type Error struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Wrapped != nil {
		return msg + ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
// This allows errors.Is(err, defs.ErrNotFound) on any not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// sentinels, for use with errors.Is.
var (
	ErrUnexpected           = &Error{Code: ErrorCodeUnexpected}
	ErrNotFound             = &Error{Code: ErrorCodeNotFound}
	ErrTypeMismatch         = &Error{Code: ErrorCodeTypeMismatch}
	ErrInvalidMediaType     = &Error{Code: ErrorCodeInvalidMediaType}
	ErrUnsupportedType      = &Error{Code: ErrorCodeUnsupportedType}
	ErrUnsupportedOperation = &Error{Code: ErrorCodeUnsupportedOperation}
	ErrUnsupportedCommand   = &Error{Code: ErrorCodeUnsupportedCommand}
	ErrCommandExecution     = &Error{Code: ErrorCodeCommandExecution}
)

// NewError allocates a classified error.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError allocates a classified error that wraps a cause.
func WrapError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Wrapped: cause,
	}
}

// CodeOf returns the code of the first classified error in err's chain.
// Unclassified errors are reported as ErrorCodeUnexpected.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrorCodeUnexpected
}

// IsClassified reports whether err carries an error code.
func IsClassified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
