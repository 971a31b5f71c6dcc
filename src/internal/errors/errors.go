// Package errors provides domain-specific error types for tinydnsproxy.
//
// Every failure the proxy can observe carries an ErrorCode. Errors with the same
// code match each other through errors.Is, so callers compare against the
// sentinels below instead of inspecting messages:
//
//	if errors.Is(err, apperrors.ErrTooManyQuestions) {
//	    // drop the request
//	}
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeIO indicates a transport or file failure (connect, read, write, open).
	ErrCodeIO ErrorCode = "IO_ERROR"

	// ErrCodeTLS indicates an encryption-layer failure after the handshake.
	ErrCodeTLS ErrorCode = "TLS_ERROR"

	// ErrCodeTLSHandshake indicates the TLS handshake with an upstream failed.
	ErrCodeTLSHandshake ErrorCode = "TLS_HANDSHAKE_ERROR"

	// ErrCodeFraming indicates a short or invalid length-prefixed upstream read.
	ErrCodeFraming ErrorCode = "FRAMING_ERROR"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeNoProviders indicates that no DNS-over-TLS provider is available.
	ErrCodeNoProviders ErrorCode = "NO_PROVIDERS"

	// ErrCodeMalformedMessage indicates a DNS message that could not be parsed.
	ErrCodeMalformedMessage ErrorCode = "MALFORMED_MESSAGE"

	// ErrCodeTooManyQuestions indicates a DNS message whose question count is not 1.
	ErrCodeTooManyQuestions ErrorCode = "TOO_MANY_QUESTIONS"

	// ErrCodeInvalidEncoding indicates bytes that are not valid UTF-8 text.
	ErrCodeInvalidEncoding ErrorCode = "INVALID_ENCODING"

	// ErrCodeEmptyListLine signals a block list line without a hostname on it.
	ErrCodeEmptyListLine ErrorCode = "EMPTY_LIST_LINE"

	// ErrCodeSync indicates that a lock or refresh guard could not be acquired.
	ErrCodeSync ErrorCode = "SYNC_ERROR"

	// ErrCodeList indicates an error fetching a block list source.
	ErrCodeList ErrorCode = "LIST_ERROR"

	// ErrCodeValidation indicates a validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons. Matching is done by code only.
var (
	ErrConnect          = New(ErrCodeIO, "connection failed")
	ErrTLS              = New(ErrCodeTLS, "tls failure")
	ErrTLSHandshake     = New(ErrCodeTLSHandshake, "tls handshake failed")
	ErrFraming          = New(ErrCodeFraming, "invalid framed message")
	ErrNoProviders      = New(ErrCodeNoProviders, "at least one DNS-over-TLS provider must be defined")
	ErrMalformedMessage = New(ErrCodeMalformedMessage, "couldn't parse DNS message")
	ErrTooManyQuestions = New(ErrCodeTooManyQuestions, "too many questions in DNS request")
	ErrInvalidEncoding  = New(ErrCodeInvalidEncoding, "couldn't decode bytes as UTF-8")
	ErrEmptyListLine    = New(ErrCodeEmptyListLine, "block list line has no meaningful content on it")
	ErrSync             = New(ErrCodeSync, "unable to update block list")
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// NewIOError creates a new transport or file error.
func NewIOError(message string, cause error) *Error {
	return Wrap(ErrCodeIO, message, cause)
}

// NewTLSError creates a new TLS error.
func NewTLSError(message string, cause error) *Error {
	return Wrap(ErrCodeTLS, message, cause)
}

// NewTLSHandshakeError creates a new TLS handshake error.
func NewTLSHandshakeError(message string, cause error) *Error {
	return Wrap(ErrCodeTLSHandshake, message, cause)
}

// NewFramingError creates a new framed-read error.
func NewFramingError(message string, cause error) *Error {
	return Wrap(ErrCodeFraming, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewListError creates a new block list error.
func NewListError(message string, cause error) *Error {
	return Wrap(ErrCodeList, message, cause)
}

// NewSyncError creates a new lock acquisition error.
func NewSyncError(message string) *Error {
	return New(ErrCodeSync, message)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
