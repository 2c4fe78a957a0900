package common

import (
	"errors"
	"net/http"
)

// Error codes surfaced in the error_code field of API responses.
const (
	CodeInputError    = "INPUT_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeUpstreamError = "UPSTREAM_ERROR"
	CodeUserError     = "USER_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
	ErrUpstream       = errors.New("upstream unavailable")
	ErrUser           = errors.New("invalid user input")
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, errorCode, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		ErrorCode: errorCode,
		Message:   message,
		Err:       err,
	}
}

// NewBadRequestError is an InputError: the caller sent something unusable.
func NewBadRequestError(message string, err error) *AppError {
	if err == nil {
		err = ErrBadRequest
	}
	return NewAppError(http.StatusBadRequest, CodeInputError, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	if err == nil {
		err = ErrNotFound
	}
	return NewAppError(http.StatusNotFound, CodeNotFound, message, err)
}

// NewUpstreamError reports a failed dependency. The cause is kept for logs
// while message is what clients see.
func NewUpstreamError(code int, message string, err error) *AppError {
	if err == nil {
		err = ErrUpstream
	}
	return NewAppError(code, CodeUpstreamError, message, err)
}

// NewUserError is a recoverable notice shown to the end user.
func NewUserError(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeUserError, message, ErrUser)
}

func NewInternalError(message string, err error) *AppError {
	if err == nil {
		err = ErrInternalServer
	}
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, err)
}

// AsAppError unwraps err into an *AppError when one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorCodeOf classifies any error into one of the Code* constants.
func ErrorCodeOf(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok && appErr.ErrorCode != "" {
		return appErr.ErrorCode
	}
	return CodeInternalError
}
