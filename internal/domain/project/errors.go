package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist in the store.
	ErrProjectNotFound = errors.New("project not found")
	// ErrNoUser indicates hydration was attempted without a user identifier.
	ErrNoUser = errors.New("user identifier required")
	// ErrInvalidAttachment indicates an attachment without a file name or URL.
	ErrInvalidAttachment = errors.New("invalid project attachment")
)
