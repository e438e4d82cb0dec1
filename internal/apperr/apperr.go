// Package apperr defines the error taxonomy shared by the token store, the
// dispatcher and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Code categorizes an application error.
type Code string

const (
	CodeInvalidArgument      Code = "invalid_argument"
	CodeInvalidTokenFormat   Code = "invalid_token_format"
	CodeNotFound             Code = "not_found"
	CodeUserTokenNotFound    Code = "user_token_not_found"
	CodeNoValidTokens        Code = "no_valid_tokens"
	CodeNoValidNotifications Code = "no_valid_notifications"
	CodeConflict             Code = "conflict"
	CodeGatewaySendFailed    Code = "gateway_send_failed"
	CodeStoreUnavailable     Code = "store_unavailable"
	CodeInternal             Code = "internal"
)

// HTTPStatus maps a Code to the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument, CodeInvalidTokenFormat, CodeNoValidNotifications:
		return http.StatusBadRequest
	case CodeNotFound, CodeUserTokenNotFound, CodeNoValidTokens:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Code, a client-facing message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an Error that wraps err.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the Code carried by err, or CodeInternal when err is not
// an *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	return CodeOf(err).HTTPStatus()
}

// Message returns the client-facing message for err. Errors outside the
// taxonomy are reported generically so internals do not leak.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
