package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/repository"
)

// ChatRepository implements repository.ChatRepository for SQLite
type ChatRepository struct {
	db *DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Get returns the stored history of a project
func (r *ChatRepository) Get(ctx context.Context, projectID string) ([]chat.Message, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM chats WHERE project_id = ?`, projectID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	messages := []chat.Message{}
	if err := json.Unmarshal([]byte(body), &messages); err != nil {
		return nil, fmt.Errorf("failed to decode chat: %w", err)
	}
	return messages, nil
}

// Replace overwrites the stored history of a project
func (r *ChatRepository) Replace(ctx context.Context, projectID string, messages []chat.Message) error {
	if messages == nil {
		messages = []chat.Message{}
	}
	body, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	query := `
		INSERT INTO chats (project_id, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, projectID, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to replace chat: %w", err)
	}
	return nil
}
