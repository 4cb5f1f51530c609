// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Field length constraints for user creation.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 255
	MaxFullNameLength = 100
	MinPasswordLength = 6
)

// User represents an identity record. IsAuthenticated reflects whether the
// user currently holds a valid session; IsActive is flipped by an external
// administrative process and is never mutated here.
type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    string
	FullName        string
	IsActive        bool
	IsAuthenticated bool
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUser creates a validated User with the given stored password hash.
// The ID is zero until the repository assigns one on insert.
func NewUser(username, email, passwordHash, fullName string) (*User, error) {
	if err := ValidateRegistration(username, email, fullName); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		Username:        username,
		Email:           email,
		PasswordHash:    passwordHash,
		FullName:        fullName,
		IsActive:        true,
		IsAuthenticated: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// RecordLogin marks a successful credential check: last login is set to now
// and the user is flagged as authenticated. The caller persists the change.
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLogin = &now
	u.IsAuthenticated = true
	u.UpdatedAt = now
}

// ValidateRegistration validates the caller-supplied identity fields.
func ValidateRegistration(username, email, fullName string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if len(fullName) > MaxFullNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxFullNameLength).
			Errorf("full name must be at most %d characters", MaxFullNameLength)
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and assigns its ID. The uniqueness check on
	// username and email and the insert execute as one transaction; a
	// collision on either field returns ErrDuplicateIdentity.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by exact, case-sensitive username.
	// Returns ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Update persists mutable fields of an existing user.
	Update(ctx context.Context, user *User) error
}
