// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// createExclusiveRetries bounds retries when concurrent logins for the
// same user race on the one-active-session index.
const createExclusiveRetries = 5

// CreateExclusive atomically deactivates every active session for the
// session's user and inserts the new session. Two concurrent calls for the
// same user can both pass the deactivate step without seeing each other's
// insert, in which case the partial unique index rejects the loser; that
// loser retries so the call still succeeds and exactly one session stays
// active.
func (r *SessionRepository) CreateExclusive(ctx context.Context, session *auth.Session) error {
	backoff := retry.WithMaxRetries(createExclusiveRetries, retry.NewConstant(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.createExclusive(ctx, session)
		if err != nil && isUniqueViolation(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *SessionRepository) createExclusive(ctx context.Context, session *auth.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE user_sessions SET is_active = FALSE
		WHERE user_id = $1 AND is_active
	`, session.UserID)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "deactivate prior sessions").
			With("user_id", session.UserID).
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, session_token, expires_at, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
		session.IsActive,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "commit transaction").
			Wrap(err)
	}
	return nil
}

// GetActiveByToken retrieves the active, unexpired session matching the
// token exactly. Expiry is evaluated lazily here; no row is mutated.
func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, session_token, expires_at, created_at, is_active
		FROM user_sessions
		WHERE session_token = $1 AND is_active AND expires_at > $2
	`, token, now)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// Invalidate marks the active session matching the token as inactive and
// clears the owning user's authenticated flag, both in one transaction.
func (r *SessionRepository) Invalidate(ctx context.Context, token string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE user_sessions SET is_active = FALSE
		WHERE session_token = $1 AND is_active
		RETURNING user_id
	`, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "deactivate session").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET is_authenticated = FALSE, updated_at = $2
		WHERE id = $1
	`, userID, time.Now().UTC())
	if err != nil {
		return 0, oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "clear authenticated flag").
			With("user_id", userID).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "commit transaction").
			Wrap(err)
	}
	return userID, nil
}

// scanSession scans a single row into a Session. Callers handle
// pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		s     auth.Session
		idStr string
	)

	err := row.Scan(&idStr, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	s.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}
	return &s, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
