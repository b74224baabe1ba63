package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Dialect error codes
const (
	ErrEmptyDocument ErrorCode = "PARSE_EMPTY_DOCUMENT"
)

// Structure error codes
const (
	ErrValidation ErrorCode = "VALIDATION_FAILED"
)

// Archive error codes
const (
	ErrArchiveFormat ErrorCode = "ARCHIVE_FORMAT"
	ErrAssetIO       ErrorCode = "ASSET_IO"
	ErrAssetNotFound ErrorCode = "ASSET_NOT_FOUND"
	ErrAssetTooLarge ErrorCode = "ASSET_TOO_LARGE"
)

// Error represents a structured error with code, message, and attribution.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Path locates the failing node, e.g. "Agent[root]-->Agent[child]".
	Path string `json:"path,omitempty"`
	// Field names the offending field.
	Field string `json:"field,omitempty"`
	// Allowed lists the legal values when Field is an enum.
	Allowed []string `json:"allowed,omitempty"`
	Cause   error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Code))
	b.WriteString("] ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Allowed) > 0 {
		b.WriteString(" (allowed: ")
		b.WriteString(strings.Join(e.Allowed, ","))
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithPath sets the tree path of the failing node.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithField sets the offending field and, for enums, its legal values.
func (e *Error) WithField(field string, allowed ...string) *Error {
	e.Field = field
	if len(allowed) > 0 {
		e.Allowed = allowed
	}
	return e
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}
