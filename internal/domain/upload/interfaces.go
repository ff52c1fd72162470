package upload

import (
	"context"

	"github.com/ganot/pdftalks/internal/domain/project"
)

// Binder attaches a document to a project in the store.
type Binder interface {
	BindFile(projectID string, att project.Attachment) (project.Project, bool, error)
}

// Uploader transmits a document to the backend and returns the
// server-assigned file name.
type Uploader interface {
	Upload(ctx context.Context, req Request) (string, error)
}

// UserSource yields the authenticated user identifier.
type UserSource interface {
	UserID() (string, bool)
}
