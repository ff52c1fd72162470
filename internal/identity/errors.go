package identity

import "errors"

var (
	// ErrNotAuthenticated indicates no credential is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoCredential indicates the identity provider returned no usable token.
	ErrNoCredential = errors.New("identity provider returned no credential")
	// ErrNoUserClaim indicates the credential carries neither an email nor a subject.
	ErrNoUserClaim = errors.New("credential has no user claim")
)
