// Package errors provides a structured error type with codes and wrapping.
// Import it as perr
package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies errors for callers, HTTP mapping and retry decisions.
// Values are stable; append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware or the job runner
	ErrorCodePanic

	// ErrorCodeUnavailable is for transient dependency failures
	ErrorCodeUnavailable

	// ErrorCodeTooManyRequests is for upstream rate limiting
	ErrorCodeTooManyRequests

	// ErrorCodeConflict is for contention, e.g. an occupied rename target
	ErrorCodeConflict

	// ErrorCodeUnauthorized is for rejected credentials
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is for access control failures and bad signatures
	ErrorCodeForbidden

	// ErrorCodeInvalidArgument is for bad input parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for records failing validation
	ErrorCodeValidation

	// ErrorCodeJSON is for encode/decode failures
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for general database errors
	ErrorCodeDB

	// ErrorCodeKV is for key-value store errors
	ErrorCodeKV

	// ErrorCodeUpstream is for event source failures other than not found
	ErrorCodeUpstream

	// ErrorCodeConfig is for programmer or deployment mistakes; never retried
	ErrorCodeConfig
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodePanic:           "panic",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeTooManyRequests: "too_many_requests",
	ErrorCodeConflict:        "conflict",
	ErrorCodeUnauthorized:    "unauthorized",
	ErrorCodeForbidden:       "forbidden",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDuplicateKey:    "duplicate_key",
	ErrorCodeDB:              "db",
	ErrorCodeKV:              "kv",
	ErrorCodeUpstream:        "upstream",
	ErrorCodeConfig:          "config",
}

// String returns the snake_case name, used as a metrics label
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown"
}

// HTTPStatusCode maps an ErrorCode to an HTTP status
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeDuplicateKey, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable, ErrorCodeUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is a convenience sentinel
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a machine code, a developer message, an optional field and op tag,
// and the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Wire is the JSON form returned by the API
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if any
func (e *Error) Op() string { return e.op }

// ToWire converts to the API payload
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Field: e.field} }

// WireFrom converts any error into a Wire payload
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf returns the outermost ErrorCode, Unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return err != nil && CodeOf(err) == code }

// HTTPStatus maps any error to an HTTP status
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As returns (*Error, true) if err wraps one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is forwards to the standard library
func Is(err, target error) bool { return stderrs.Is(err, target) }

// WithField returns a copy of err with field set; foreign errors pass through
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp returns a copy of err with op set; foreign errors pass through
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns an *Error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Forbiddenf returns a forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Configf returns a configuration error
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// HTTP bundles status and wire payload for handlers
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// Permanent reports errors a job runner must not retry
func Permanent(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeConfig, ErrorCodeValidation, ErrorCodeInvalidArgument, ErrorCodeJSON, ErrorCodeForbidden:
		return true
	}
	return false
}

// Retryable reports whether err is worth retrying.
// Local cancellation is never retryable; backend specific rules live in kv.go and pg.go
func Retryable(err error) bool {
	if err == nil || Permanent(err) {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests, ErrorCodeUpstream, ErrorCodeKV:
		return true
	}
	return IsRetryablePG(err) || IsRetryableKV(err)
}
