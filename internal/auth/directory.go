// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Directory provides user creation, lookup, and credential authentication.
type Directory struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewDirectory creates a new Directory.
func NewDirectory(users UserRepository, hasher PasswordHasher) (*Directory, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Directory{users: users, hasher: hasher}, nil
}

// dummyStoredForm is verified against when a username does not resolve to a
// user, so response time stays consistent with the real-user path. It is a
// fixed salt:digest pair that matches no password.
const dummyStoredForm = "00000000000000000000000000000000:" +
	"0000000000000000000000000000000000000000000000000000000000000000"

// Create registers a new user. The existence check and insert run as one
// atomic unit of work; if the username or email is already taken the call
// fails with ErrDuplicateIdentity, without revealing which field collided.
func (d *Directory) Create(ctx context.Context, username, email, password, fullName string) (*User, error) {
	if err := ValidateRegistration(username, email, fullName); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, hash, fullName)
	if err != nil {
		return nil, err
	}

	if err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, oops.Code("AUTH_DUPLICATE_IDENTITY").Wrap(err)
		}
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return user, nil
}

// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
func (d *Directory) GetByID(ctx context.Context, id int64) (*User, error) {
	return d.users.GetByID(ctx, id)
}

// GetByUsername retrieves a user by exact username. Returns ErrNotFound if
// absent.
func (d *Directory) GetByUsername(ctx context.Context, username string) (*User, error) {
	return d.users.GetByUsername(ctx, username)
}

// Authenticate checks a username/password pair. Unknown usernames, inactive
// users, and wrong passwords all fail with the same ErrInvalidCredentials
// outcome. On success the user's last login and authenticated flag are
// updated and persisted, and the updated user is returned.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, lookupErr := d.users.GetByUsername(ctx, username)

	// Verify against a dummy stored form when the lookup failed, so the
	// response time does not reveal whether the username exists.
	target := dummyStoredForm
	usable := false
	if lookupErr == nil {
		target = user.PasswordHash
		usable = user.IsActive
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid := d.hasher.Verify(password, target)
	if !usable || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	user.RecordLogin()
	if err := d.users.Update(ctx, user); err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "persist login state").
			With("user_id", user.ID).
			Wrap(err)
	}
	return user, nil
}
