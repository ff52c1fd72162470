package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an entity with the same id already exists
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrUnauthorized is returned when the backend rejects the credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned when the backend cannot be reached
	ErrUnavailable = errors.New("backend unavailable")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
