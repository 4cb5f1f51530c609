// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// SessionStore issues, validates, and invalidates sessions.
type SessionStore struct {
	sessions SessionRepository
	users    UserRepository
	ttl      time.Duration
}

// NewSessionStore creates a new SessionStore. A non-positive ttl falls back
// to DefaultSessionTTL.
func NewSessionStore(sessions SessionRepository, users UserRepository, ttl time.Duration) (*SessionStore, error) {
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{sessions: sessions, users: users, ttl: ttl}, nil
}

// TTL returns the configured expiry horizon for new sessions.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// CreateSession issues a fresh session for the user. Any session still
// active for the user is deactivated in the same transaction as the insert,
// so at most one session per user is active even under concurrent calls.
func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	session, err := NewSession(userID, token, time.Now().UTC().Add(s.ttl))
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := s.sessions.CreateExclusive(ctx, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID).
			Wrap(err)
	}
	return session, nil
}

// ValidateSession resolves a token to its owning user. It fails with
// ErrSessionInvalid when the token is empty, unknown, expired, or
// invalidated, or when the owning user is missing or inactive; the cases
// are not distinguishable by the caller. Validation is read-only: it never
// extends expiry or mutates state.
func (s *SessionStore) ValidateSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrSessionInvalid)
	}

	session, err := s.sessions.GetActiveByToken(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_ORPHANED").Wrap(ErrSessionInvalid)
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session owner").
			With("user_id", session.UserID).
			Wrap(err)
	}
	if !user.IsActive {
		return nil, oops.Code("SESSION_OWNER_INACTIVE").Wrap(ErrSessionInvalid)
	}
	return user, nil
}

// Invalidate deactivates the active session matching the token and clears
// the owning user's authenticated flag, both in one transaction. It fails
// with ErrSessionInvalid when the token is empty or no active session
// matches it.
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrSessionInvalid)
	}

	if _, err := s.sessions.Invalidate(ctx, token); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").Wrap(ErrSessionInvalid)
		}
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "invalidate session").
			Wrap(err)
	}
	return nil
}
