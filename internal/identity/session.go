// Package identity holds the signed-in user's credential for the
// lifetime of the process. Nothing is persisted.
package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the opaque bearer token handed out by the identity provider.
type Credential struct {
	Token  string
	Expiry time.Time
}

// Session tracks the current credential and notifies listeners when the
// authenticated state changes. It implements oauth2.TokenSource.
type Session struct {
	logger *slog.Logger

	mu        sync.Mutex
	cred      *Credential
	userID    string
	listeners []func(bool)
}

// NewSession creates an unauthenticated session.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{logger: logger}
}

// StaticToken wraps a raw credential, typically from configuration, as a
// token source for Authenticate.
func StaticToken(raw string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: raw, TokenType: "Bearer"})
}

// Authenticate obtains a token from src and stores it as the session
// credential. The id_token extra is preferred over the access token.
func (s *Session) Authenticate(ctx context.Context, src oauth2.TokenSource) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	tok, err := src.Token()
	if err != nil {
		s.logger.Error("identity provider failed", "error", err)
		return Credential{}, err
	}

	raw := tok.AccessToken
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		raw = idToken
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credential{}, ErrNoCredential
	}

	userID, err := DecodeUserID(raw)
	if err != nil {
		s.logger.Warn("credential has no readable user id", "error", err)
		userID = ""
	}

	cred := Credential{Token: raw, Expiry: tok.Expiry}

	s.mu.Lock()
	was := s.cred != nil
	s.cred = &cred
	s.userID = userID
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	s.logger.Info("signed in", "user_id", userID, "fingerprint", Fingerprint())
	if !was {
		notify(listeners, true)
	}
	return cred, nil
}

// Logout drops the credential.
func (s *Session) Logout() {
	s.mu.Lock()
	was := s.cred != nil
	s.cred = nil
	s.userID = ""
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	if was {
		s.logger.Info("signed out")
		notify(listeners, false)
	}
}

// Token returns the credential as a bearer token.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: s.cred.Token,
		TokenType:   "Bearer",
		Expiry:      s.cred.Expiry,
	}, nil
}

// Credential returns the current credential, if any.
func (s *Session) Credential() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

// UserID returns the decoded user identifier. It is absent when signed
// out or when the credential could not be decoded.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil || s.userID == "" {
		return "", false
	}
	return s.userID, true
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred != nil
}

// OnChange registers fn to run on every login and logout.
func (s *Session) OnChange(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func notify(listeners []func(bool), authenticated bool) {
	for _, fn := range listeners {
		fn(authenticated)
	}
}
