package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed input. The whole operation is rejected,
	// nothing is partially applied.
	ErrValidation = fmt.Errorf("validation failed")
	// ErrNotFound marks an unknown session identifier.
	ErrNotFound = fmt.Errorf("not found")
	// ErrPersistence marks a store failure. Never retried by the service.
	ErrPersistence = fmt.Errorf("persistence failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Persistence(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// MapToHTTPStatus translates the service error taxonomy into an HTTP status
// code for the API surface. Unknown errors are reported as server failures
// rather than leaked as-is.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
