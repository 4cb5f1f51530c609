// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// Stored form parameters. The persisted format is "<salt>:<digest>" where
// salt is 16 random bytes hex-encoded (32 chars) and digest is the SHA-256
// of password+salt, hex-encoded (64 chars). Existing rows use this exact
// layout, so it must not change without a data migration.
const (
	hashSaltLen = 16
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted stored form of the password. Two calls with
	// the same password yield different stored forms.
	Hash(password string) (string, error)

	// Verify checks the password against a stored form. Malformed stored
	// forms fail verification; they never cause a fault.
	Verify(password, stored string) bool
}

// SaltedHasher implements PasswordHasher using per-password salts and a
// single SHA-256 pass. Whether a fast digest is adequate for the
// deployment's threat model is an open question; it is kept as-is for
// compatibility with existing stored hashes.
type SaltedHasher struct {
	logger *slog.Logger
}

// NewSaltedHasher creates a new SaltedHasher. A nil logger falls back to
// slog.Default.
func NewSaltedHasher(logger *slog.Logger) *SaltedHasher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaltedHasher{logger: logger}
}

// Hash produces a salted stored form of the password.
func (h *SaltedHasher) Hash(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + ":" + digest(password, saltHex), nil
}

// Verify checks the password against a stored form. A stored form without
// exactly one ':' separator is malformed: verification fails closed and
// the event is logged for diagnostics.
func (h *SaltedHasher) Verify(password, stored string) bool {
	salt, want, ok := strings.Cut(stored, ":")
	if !ok || strings.Contains(want, ":") {
		h.logger.Info("malformed stored password hash", "stored_len", len(stored))
		return false
	}
	got := digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// digest computes the hex-encoded SHA-256 of password concatenated with
// the hex-encoded salt.
func digest(password, saltHex string) string {
	sum := sha256.Sum256([]byte(password + saltHex))
	return hex.EncodeToString(sum[:])
}

// Compile-time interface check.
var _ PasswordHasher = (*SaltedHasher)(nil)
