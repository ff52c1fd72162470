package chat

import "context"

// Backend provides remote chat history and question answering.
type Backend interface {
	GetChat(ctx context.Context, projectID string) ([]Message, error)
	UpdateChat(ctx context.Context, projectID string, messages []Message) error
	Ask(ctx context.Context, q Question) (string, error)
}
