// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides identity and session management for Gatehouse.
//
// # Domain Types
//
// User is an identity record with unique username and email. Session is
// one issued bearer credential for a user; a user accumulates sessions
// over time but at most one is active at any instant. Session rows are
// never deleted: invalidated and expired sessions remain as history, so
// the user_sessions table grows without bound. There is deliberately no
// reclamation sweep.
//
// # Services
//
// Service types coordinate domain operations:
//   - Directory - user creation, lookup, and credential authentication
//   - SessionStore - session issuance, validation, and invalidation
//
// Services are created with New* constructors that validate dependencies.
// Repository interfaces (UserRepository, SessionRepository) are
// implemented by the postgres subpackage.
package auth
