package repository

import (
	"context"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/readiness"
	"github.com/ganot/pdftalks/internal/domain/upload"
)

// Backend is the full remote surface the client consumes: liveness,
// project listing, document upload, chat history, and question answering.
type Backend interface {
	readiness.Pinger
	project.Lister
	upload.Uploader
	chat.Backend
}

// ProjectRepository stores projects on the reference backend, scoped by owner.
type ProjectRepository interface {
	Upsert(ctx context.Context, ownerID string, proj project.Project) error
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, ownerID string) ([]project.Project, error)
	Owner(ctx context.Context, id string) (string, error)
}

// DocumentRepository stores uploaded documents, one per project.
type DocumentRepository interface {
	Put(ctx context.Context, doc upload.Document) error
	Get(ctx context.Context, projectID string) (*upload.Document, error)
}

// ChatRepository stores chat histories wholesale.
type ChatRepository interface {
	Get(ctx context.Context, projectID string) ([]chat.Message, error)
	Replace(ctx context.Context, projectID string, messages []chat.Message) error
}
