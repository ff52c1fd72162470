package chat

import "errors"

var (
	// ErrEmptyQuestion indicates a blank question was submitted.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNoProject indicates a chat operation without a project id.
	ErrNoProject = errors.New("project id required")
)
