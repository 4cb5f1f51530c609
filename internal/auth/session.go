// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32             // entropy before encoding
	DefaultSessionTTL = 24 * time.Hour // default expiry horizon
)

// Session represents one issued bearer credential for a user. A session is
// valid while IsActive is true, ExpiresAt is in the future, and the owning
// user is active. IsActive only ever flips to false: on explicit logout or
// when superseded by a newer session for the same user. Expiry is a
// computed fact, not a stored transition; rows are never deleted.
type Session struct {
	ID        ulid.ULID
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsActive  bool
}

// NewSession creates a validated Session instance.
func NewSession(userID int64, token string, expiresAt time.Time) (*Session, error) {
	if userID == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if token == "" {
		return nil, oops.Code("SESSION_INVALID_TOKEN").Errorf("token cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &Session{
		ID:        ulid.Make(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}, nil
}

// IsExpiredAt reports whether the session would be expired at the given
// time, regardless of its active flag.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}

// GenerateSessionToken creates an unguessable URL-safe session token with
// SessionTokenBytes of underlying entropy.
func GenerateSessionToken() (string, error) {
	raw := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// CreateExclusive atomically deactivates every currently active session
	// belonging to session.UserID and inserts the new session, so that no
	// window exists in which two sessions are simultaneously active for
	// one user.
	CreateExclusive(ctx context.Context, session *Session) error

	// GetActiveByToken retrieves the session matching the token exactly,
	// where the session is active and expires after now. Returns
	// ErrNotFound otherwise.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*Session, error)

	// Invalidate atomically marks the active session matching the token as
	// inactive and clears the owning user's authenticated flag. Returns the
	// owning user's ID, or ErrNotFound if no active session matches.
	Invalidate(ctx context.Context, token string) (int64, error)
}
