// Package goerror defines the structured errors returned by usecases.
//
// An *Error carries a user-facing message, a Type and a Code; the router maps
// the Code to an HTTP status and renders the message. Underlying causes stay
// in the chain for logs and errors.Is but are never shown to clients.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeUnavailable marks a dependency that is down (database, broker, storage).
	CodeUnavailable
)

var codeInfo = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeUnavailable:    {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}

	return codeInfo[CodeInternal].name
}

// Error is a structured error used across the application.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface. It prefers the wrapped cause so logs
// show the real failure.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation for debugging.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if info, ok := codeInfo[e.code]; ok {
		return info.status
	}

	return http.StatusInternalServerError
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}

	return nil, false
}

// IsCode reports whether err's chain holds an *Error with the given code.
func IsCode(err error, code Code) bool {
	gerr, ok := As(err)
	return ok && gerr.code == code
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an unexpected failure. Clients only see a generic message.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewUnavailable wraps a failure of a downstream dependency.
func NewUnavailable(err error, msg string) error {
	return newError(err, msg, TypeServer, CodeUnavailable)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewInvalidInput creates a validation error. With a non-nil err the field
// messages come from err (see router's error codec); otherwise kv is read as
// field, message pairs.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat creates a validation error for a malformed request.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	return newError(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
