package project

import "context"

// Lister fetches the remote project list for a user.
type Lister interface {
	ListProjects(ctx context.Context, userID string) ([]Project, error)
}
