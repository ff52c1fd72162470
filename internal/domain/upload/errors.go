package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPDF indicates the file is not a PDF document.
	ErrNotPDF = errors.New("file is not a PDF")
	// ErrTooLarge indicates the file exceeds the size ceiling.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrUploadInFlight indicates an upload is already running for the project.
	ErrUploadInFlight = errors.New("upload already in progress")
	// ErrNotAuthenticated indicates no user identifier is available.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoContent indicates the file cannot be read.
	ErrNoContent = errors.New("file has no readable content")
)

// ValidationError carries a user-facing reason for a rejected file.
type ValidationError struct {
	Err    error
	reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Reason returns the message shown to the user.
func (e *ValidationError) Reason() string {
	return e.reason
}
