// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with defaults", func(t *testing.T) {
		user, err := auth.NewUser("alice", "a@x.com", "salt:digest", "Alice")
		require.NoError(t, err)

		assert.Zero(t, user.ID)
		assert.True(t, user.IsActive)
		assert.False(t, user.IsAuthenticated)
		assert.Nil(t, user.LastLogin)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUser("alice", "a@x.com", "", "Alice")
		assert.Error(t, err)
	})
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		fullName string
		wantErr  bool
	}{
		{"valid", "alice", "a@x.com", "Alice", false},
		{"empty full name allowed", "alice", "a@x.com", "", false},
		{"empty username", "", "a@x.com", "Alice", true},
		{"empty email", "alice", "", "Alice", true},
		{"username too long", strings.Repeat("a", 51), "a@x.com", "Alice", true},
		{"email too long", "alice", strings.Repeat("a", 250) + "@x.com", "Alice", true},
		{"full name too long", "alice", "a@x.com", strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateRegistration(tt.username, tt.email, tt.fullName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserRecordLogin(t *testing.T) {
	user, err := auth.NewUser("alice", "a@x.com", "salt:digest", "Alice")
	require.NoError(t, err)

	before := time.Now().UTC()
	user.RecordLogin()

	assert.True(t, user.IsAuthenticated)
	require.NotNil(t, user.LastLogin)
	assert.False(t, user.LastLogin.Before(before))
	assert.Equal(t, *user.LastLogin, user.UpdatedAt)
}
