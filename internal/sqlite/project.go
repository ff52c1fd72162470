package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Upsert creates a project or rebinds an existing one owned by the same user.
func (r *ProjectRepository) Upsert(ctx context.Context, ownerID string, proj project.Project) error {
	if strings.TrimSpace(ownerID) == "" || proj.ID == "" {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT INTO projects (id, owner_id, title, file_name, upload_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			file_name = excluded.file_name
		WHERE projects.owner_id = excluded.owner_id
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.ID,
		ownerID,
		proj.Title,
		proj.FileName,
		proj.UploadDate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, title, file_name, upload_date
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Title,
		&proj.FileName,
		&proj.UploadDate,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}

// Owner returns the user a project belongs to
func (r *ProjectRepository) Owner(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM projects WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get project owner: %w", err)
	}
	return owner, nil
}

// List returns the projects of an owner, oldest first
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]project.Project, error) {
	query := `
		SELECT id, title, file_name, upload_date
		FROM projects
		WHERE owner_id = ?
		ORDER BY upload_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		var proj project.Project
		err := rows.Scan(
			&proj.ID,
			&proj.Title,
			&proj.FileName,
			&proj.UploadDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}
