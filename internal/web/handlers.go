// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/dashboard"
	"github.com/gatehouse/gatehouse/internal/gateway"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userPayload is the identity slice returned from register and login.
type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func toUserPayload(u *auth.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// handleIndex routes clients by authentication state: a valid session goes
// to the dashboard, everyone else to the login prompt.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if user := s.gate.CurrentIdentity(r.Context(), s.client(w, r)); user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (s *Server) handleLoginPrompt(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "authentication required",
		"login":   "POST " + LoginPath,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "REQUEST_MALFORMED", "invalid JSON body")
		return
	}

	user, err := s.directory.Create(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		s.respondRegisterError(w, err)
		return
	}

	s.countRegistration("created")
	respondJSON(w, http.StatusCreated, map[string]any{"user": toUserPayload(user)})
}

func (s *Server) respondRegisterError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrDuplicateIdentity) {
		s.countRegistration("duplicate")
		respondError(w, http.StatusConflict, "AUTH_DUPLICATE_IDENTITY", "username or email already registered")
		return
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		switch code := oopsErr.Code(); code {
		case "AUTH_INVALID_USERNAME", "AUTH_INVALID_EMAIL", "AUTH_INVALID_NAME", "AUTH_INVALID_PASSWORD":
			s.countRegistration("invalid")
			respondError(w, http.StatusBadRequest, code, oopsErr.Error())
			return
		}
	}

	errutil.LogError(s.logger, "registration failed", err)
	respondError(w, http.StatusInternalServerError, "AUTH_CREATE_FAILED", "registration failed")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "REQUEST_MALFORMED", "invalid JSON body")
		return
	}

	user, err := s.directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.countLogin("failure")
			respondError(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid username or password")
			return
		}
		errutil.LogError(s.logger, "login failed", err)
		respondError(w, http.StatusInternalServerError, "AUTH_LOGIN_FAILED", "login failed")
		return
	}

	session, err := s.sessions.CreateSession(r.Context(), user.ID)
	if err != nil {
		errutil.LogError(s.logger, "session creation failed", err)
		respondError(w, http.StatusInternalServerError, "SESSION_CREATE_FAILED", "login failed")
		return
	}

	client := s.client(w, r)
	s.gate.Login(client, session.Token)
	redirect := s.gate.ConsumeRedirect(client)

	s.countLogin("success")
	if s.metrics != nil {
		s.metrics.SessionsIssued.Inc()
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user":     toUserPayload(user),
		"redirect": redirect,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Logout(r.Context(), s.client(w, r)); err != nil {
		errutil.LogError(s.logger, "logout failed", err)
		respondError(w, http.StatusInternalServerError, "AUTH_LOGOUT_FAILED", "logout failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"redirect": LoginPath})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	err := s.gate.RequireAuth(r.Context(), s.client(w, r), r.URL.Path, func(_ context.Context, user *auth.User) error {
		s.countValidation("valid")
		respondJSON(w, http.StatusOK, map[string]any{
			"dashboard":  dashboard.For(user, now),
			"statistics": dashboard.StatisticsFor(user, now),
		})
		return nil
	})
	if err == nil {
		return
	}

	if errors.Is(err, gateway.ErrLoginRequired) {
		s.countValidation("invalid")
		respondError(w, http.StatusUnauthorized, "AUTH_LOGIN_REQUIRED", "login required")
		return
	}

	errutil.LogError(s.logger, "dashboard failed", err)
	respondError(w, http.StatusInternalServerError, "DASHBOARD_FAILED", "dashboard unavailable")
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countValidation(outcome string) {
	if s.metrics != nil {
		s.metrics.SessionValidationsTotal.WithLabelValues(outcome).Inc()
	}
}
