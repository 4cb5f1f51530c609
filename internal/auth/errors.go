// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateIdentity is returned when a username or email is already
// registered. The two cases are deliberately indistinguishable so callers
// cannot enumerate which field collided.
var ErrDuplicateIdentity = errors.New("username or email already registered")

// ErrInvalidCredentials is returned for unknown usernames, inactive users,
// and wrong passwords alike. The cases are deliberately collapsed.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrSessionInvalid is returned when a session token does not resolve to a
// usable session: missing, expired, invalidated, or owned by an inactive
// user. The cases are not distinguishable through this error.
var ErrSessionInvalid = errors.New("session not valid")
