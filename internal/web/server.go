// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web exposes the authentication service over HTTP. Sessions ride
// in HttpOnly cookies; request and response bodies are JSON.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/gateway"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// LoginPath is where denied clients are pointed.
const LoginPath = "/login"

// UserDirectory is the slice of the directory service the HTTP layer uses.
type UserDirectory interface {
	Create(ctx context.Context, username, email, password, fullName string) (*auth.User, error)
	Authenticate(ctx context.Context, username, password string) (*auth.User, error)
}

// SessionIssuer mints sessions for authenticated users.
type SessionIssuer interface {
	CreateSession(ctx context.Context, userID int64) (*auth.Session, error)
}

// Server is the gatehouse HTTP server.
type Server struct {
	router        chi.Router
	logger        *slog.Logger
	directory     UserDirectory
	sessions      SessionIssuer
	gate          *gateway.Gateway
	metrics       *observability.Metrics
	secureCookies bool
	now           func() time.Time
}

// Option configures optional Server behavior.
type Option func(*Server)

// WithSecureCookies marks session cookies Secure. Enable whenever the
// service terminates TLS or sits behind a TLS-terminating proxy.
func WithSecureCookies() Option {
	return func(s *Server) {
		s.secureCookies = true
	}
}

// WithMetrics records login, registration, and session counters on the
// given metrics set.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a new Server with all routes registered.
func NewServer(directory UserDirectory, sessions SessionIssuer, gate *gateway.Gateway, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "web"),
		directory: directory,
		sessions:  sessions,
		gate:      gate,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))

	r.Get("/", s.handleIndex)
	r.Get(LoginPath, s.handleLoginPrompt)
	r.Post(LoginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/register", s.handleRegister)
	r.Get("/dashboard", s.handleDashboard)
}

// client builds the per-request cookie view of gateway.ClientState.
func (s *Server) client(w http.ResponseWriter, r *http.Request) gateway.ClientState {
	return newCookieState(w, r, s.secureCookies)
}
