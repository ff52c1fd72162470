package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Put stores a document, replacing any previous one for the project
func (r *DocumentRepository) Put(ctx context.Context, doc upload.Document) error {
	query := `
		INSERT INTO documents (project_id, file_name, media_type, namespace, size, content, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			file_name = excluded.file_name,
			media_type = excluded.media_type,
			namespace = excluded.namespace,
			size = excluded.size,
			content = excluded.content,
			stored_at = excluded.stored_at
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ProjectID,
		doc.FileName,
		doc.MediaType,
		doc.Namespace,
		len(doc.Content),
		doc.Content,
		doc.StoredAt.UTC(),
	)
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	return nil
}

// Get retrieves the document of a project
func (r *DocumentRepository) Get(ctx context.Context, projectID string) (*upload.Document, error) {
	query := `
		SELECT project_id, file_name, media_type, namespace, content, stored_at
		FROM documents
		WHERE project_id = ?
	`

	var doc upload.Document
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&doc.ProjectID,
		&doc.FileName,
		&doc.MediaType,
		&doc.Namespace,
		&doc.Content,
		&doc.StoredAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}
