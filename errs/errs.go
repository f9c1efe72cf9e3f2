// Package errs defines the error kinds shared by the stores, the interaction
// service and the HTTP binding.
package errs

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrValidation marks malformed or missing input. Not safe to retry unmodified.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a duplicate interaction.
	ErrConflict = errors.New("conflict")
	// ErrStorage marks a persistence failure. Safe to retry.
	ErrStorage = errors.New("storage failure")

	// ErrForbidden marks an authenticated caller acting on something it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized marks a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation returns an ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// NotFound returns an ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// Conflict returns an ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return errors.Wrapf(ErrConflict, format, args...)
}

// Forbidden returns an ErrForbidden with a formatted message.
func Forbidden(format string, args ...any) error {
	return errors.Wrapf(ErrForbidden, format, args...)
}

// Unauthorized returns an ErrUnauthorized with a formatted message.
func Unauthorized(format string, args ...any) error {
	return errors.Wrapf(ErrUnauthorized, format, args...)
}

// storageError keeps both the driver cause and the ErrStorage kind
// reachable through errors.Is / errors.As.
type storageError struct {
	msg   string
	cause error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.msg, e.cause)
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorage, e.cause}
}

// Storage wraps a persistence failure. A nil cause yields nil.
func Storage(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&storageError{msg: fmt.Sprintf(format, args...), cause: cause})
}

// HTTPStatus maps an error kind to the status code the HTTP binding answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message safe to show to a client. Storage and unknown
// failures are not echoed verbatim.
func Public(err error) string {
	switch HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		return "Storage temporarily unavailable"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}
