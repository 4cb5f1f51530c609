// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package gateway gates protected operations behind a valid session.
//
// Per-client state (the token slot and the pending-redirect slot) lives in
// a ClientState collaborator passed explicitly into every call; the gateway
// itself holds no per-client state and no hidden globals.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// Per-client slot keys and paths.
const (
	tokenKey    = "session_token"
	redirectKey = "redirect_after_login"

	// DefaultLandingPath is where ConsumeRedirect sends clients that were
	// never denied anywhere in particular.
	DefaultLandingPath = "/dashboard"
)

// ErrLoginRequired is the denial signal emitted instead of invoking a
// guarded operation when no valid identity resolves. Missing, expired, and
// invalidated sessions all collapse into this one signal.
var ErrLoginRequired = errors.New("login required")

// ClientState is per-client key-value storage scoped to one connected
// client. It holds at most one token and one pending-redirect path at a
// time. Implementations live with the transport (cookies, client storage).
type ClientState interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// SessionResolver is the slice of the session store the gateway consumes.
type SessionResolver interface {
	ValidateSession(ctx context.Context, token string) (*auth.User, error)
	Invalidate(ctx context.Context, token string) error
}

// Gateway enforces authenticated-only access to protected operations.
type Gateway struct {
	sessions SessionResolver
	logger   *slog.Logger
}

// New creates a new Gateway. A nil logger falls back to slog.Default.
func New(sessions SessionResolver, logger *slog.Logger) (*Gateway, error) {
	if sessions == nil {
		return nil, oops.Errorf("session resolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{sessions: sessions, logger: logger}, nil
}

// CurrentIdentity resolves the client's stored token to a user, or nil when
// the client holds no token or the token no longer resolves to a valid
// session. Infrastructure failures also resolve to nil; they are logged,
// not surfaced, so a flaky store degrades to "not authenticated".
func (g *Gateway) CurrentIdentity(ctx context.Context, client ClientState) *auth.User {
	token, ok := client.Get(tokenKey)
	if !ok {
		return nil
	}

	user, err := g.sessions.ValidateSession(ctx, token)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionInvalid) {
			g.logger.Error("session validation failed", "error", err)
		}
		return nil
	}
	return user
}

// Operation is a protected operation invoked with the resolved identity.
type Operation func(ctx context.Context, user *auth.User) error

// RequireAuth invokes op with the resolved identity. When no identity
// resolves it records intendedPath into the pending-redirect slot,
// overwriting any prior value, and returns ErrLoginRequired without
// invoking op.
func (g *Gateway) RequireAuth(ctx context.Context, client ClientState, intendedPath string, op Operation) error {
	user := g.CurrentIdentity(ctx, client)
	if user == nil {
		client.Set(redirectKey, intendedPath)
		return oops.Code("AUTH_LOGIN_REQUIRED").
			With("intended_path", intendedPath).
			Wrap(ErrLoginRequired)
	}
	return op(ctx, user)
}

// Login stores the session token in the client's token slot.
func (g *Gateway) Login(client ClientState, token string) {
	client.Set(tokenKey, token)
}

// Logout clears both client slots and invalidates the backing session. An
// already-invalid or expired session is not an error; the logout outcome
// is the same.
func (g *Gateway) Logout(ctx context.Context, client ClientState) error {
	token, ok := client.Get(tokenKey)
	client.Delete(tokenKey)
	client.Delete(redirectKey)

	if !ok {
		return nil
	}
	if err := g.sessions.Invalidate(ctx, token); err != nil && !errors.Is(err, auth.ErrSessionInvalid) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "invalidate session").
			Wrap(err)
	}
	return nil
}

// ConsumeRedirect returns and clears the pending-redirect path, defaulting
// to DefaultLandingPath when none was recorded.
func (g *Gateway) ConsumeRedirect(client ClientState) string {
	path, ok := client.Get(redirectKey)
	client.Delete(redirectKey)
	if !ok || path == "" {
		return DefaultLandingPath
	}
	return path
}
