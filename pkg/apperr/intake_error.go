// Package apperr defines structured application errors shared across the
// intake pipeline and its adapters.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeBadRequest    = "BAD_REQUEST"

	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeNoMatch          = "NO_MATCH"

	CodeDatabaseError = "DATABASE_ERROR"
	CodeProviderError = "PROVIDER_ERROR"
	CodeExternalError = "EXTERNAL_ERROR"
	CodeTimeout       = "TIMEOUT"

	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError is a structured application error.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code for the operational API.
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func NotFound(message string) *AppError {
	if message == "" {
		message = "not found"
	}
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func AlreadyExists(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message, Status: http.StatusConflict}
}

func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

func ExtractionFailed(message string) *AppError {
	return &AppError{Code: CodeExtractionFailed, Message: message, Status: http.StatusUnprocessableEntity}
}

func Database(err error, message string) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Status: http.StatusInternalServerError, Err: err}
}

func Provider(err error, message string) *AppError {
	return &AppError{Code: CodeProviderError, Message: message, Status: http.StatusBadGateway, Err: err}
}

func External(err error, message string) *AppError {
	return &AppError{Code: CodeExternalError, Message: message, Status: http.StatusBadGateway, Err: err}
}

func Internal(err error, message string) *AppError {
	return &AppError{Code: CodeInternalError, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
