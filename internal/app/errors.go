package app

import (
	"errors"

	"github.com/ganot/pdftalks/internal/identity"
)

var (
	// ErrNotReady indicates the backend liveness probe has not succeeded.
	ErrNotReady = errors.New("backend not ready")
	// ErrNotAuthenticated indicates no user is signed in.
	ErrNotAuthenticated = identity.ErrNotAuthenticated
	// ErrNoDocument indicates the active project has no document to chat about.
	ErrNoDocument = errors.New("active project has no document")
)
