package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
	"github.com/ganot/pdftalks/internal/repository"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Code: "VALIDATION_FAILED", Message: verr.Reason(), RecoveryHint: "Choose a PDF under the size limit"}
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, chat.ErrEmptyQuestion), errors.Is(err, upload.ErrNoContent), errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_FAILED", Message: err.Error()}
	case errors.Is(err, identity.ErrNotAuthenticated), errors.Is(err, upload.ErrNotAuthenticated), errors.Is(err, repository.ErrUnauthorized):
		return &APIError{Code: "NOT_AUTHENTICATED", Message: "not signed in", RecoveryHint: "Restart with --token or PDFTALKS_ID_TOKEN"}
	case errors.Is(err, app.ErrNotReady), errors.Is(err, repository.ErrUnavailable):
		return &APIError{Code: "NOT_READY", Message: "backend not reachable", RecoveryHint: "Check the backend and call get_status"}
	case errors.Is(err, upload.ErrUploadInFlight):
		return &APIError{Code: "UPLOAD_IN_FLIGHT", Message: "an upload is already running for this project", RecoveryHint: "Wait for it to finish"}
	case errors.Is(err, app.ErrNoDocument):
		return &APIError{Code: "NO_DOCUMENT", Message: "active project has no document", RecoveryHint: "Call upload_document first"}
	default:
		return nil
	}
}

// toolError converts an error into the value a tool handler returns.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
