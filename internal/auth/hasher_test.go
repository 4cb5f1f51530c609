// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewSaltedHasher(nil)

	t.Run("produces salt:digest stored form", func(t *testing.T) {
		stored, err := hasher.Hash("password123")
		require.NoError(t, err)

		salt, digest, ok := strings.Cut(stored, ":")
		require.True(t, ok)
		assert.Len(t, salt, 32)
		assert.Len(t, digest, 64)
	})

	t.Run("same password produces different stored forms", func(t *testing.T) {
		stored1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		stored2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, stored1, stored2)
	})

	t.Run("hashes empty password", func(t *testing.T) {
		stored, err := hasher.Hash("")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("", stored))
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewSaltedHasher(nil)

	t.Run("correct password verifies", func(t *testing.T) {
		stored, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("correctpassword", stored))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		stored, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("wrongpassword", stored))
	})

	t.Run("verifies against a stored form from another hasher instance", func(t *testing.T) {
		stored, err := auth.NewSaltedHasher(nil).Hash("portable")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("portable", stored))
	})

	t.Run("malformed stored form fails closed", func(t *testing.T) {
		assert.False(t, hasher.Verify("password", "not-a-valid-format"))
		assert.False(t, hasher.Verify("password", ""))
		assert.False(t, hasher.Verify("password", "too:many:separators"))
	})

	t.Run("malformed stored form is logged", func(t *testing.T) {
		var buf bytes.Buffer
		logging := auth.NewSaltedHasher(slog.New(slog.NewTextHandler(&buf, nil)))

		assert.False(t, logging.Verify("password", "no-separator-here"))
		assert.Contains(t, buf.String(), "malformed stored password hash")
	})
}
