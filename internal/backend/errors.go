package backend

import (
	"fmt"
	"net/http"

	"github.com/ganot/pdftalks/internal/repository"
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Route      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Route, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Route, e.StatusCode, e.Body)
}

// Unwrap maps the status code onto the repository sentinels.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return repository.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return repository.ErrConflict
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return repository.ErrUnauthorized
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity,
		e.StatusCode == http.StatusRequestEntityTooLarge:
		return repository.ErrInvalidInput
	case e.StatusCode >= 500:
		return repository.ErrUnavailable
	default:
		return nil
	}
}
