// Package errors defines the sentinel errors shared across the builder and
// the search service, plus an AppError wrapper carrying an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCorpusNotFound   = errors.New("corpus not found")
	ErrCorpusMalformed  = errors.New("corpus malformed")
	ErrTaxonomyInvalid  = errors.New("taxonomy invalid")
	ErrBundleInvalid    = errors.New("artifact bundle invalid")
	ErrBundleWrite      = errors.New("artifact bundle write failed")
	ErrIndexNotLoaded   = errors.New("index artifacts not loaded")
	ErrInvalidInput     = errors.New("invalid input")
	ErrVerseNotFound    = errors.New("verse not found")
	ErrTooManySkipped   = errors.New("too many chapters skipped")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// AppError wraps a sentinel error with a human message and an HTTP status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError around the given sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf builds an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code the API should return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrVerseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotLoaded), errors.Is(err, ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
