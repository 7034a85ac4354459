// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token generates opaque verification secrets and their one-way hashes.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// Length is the number of random bytes in a raw token (256 bits).
	Length = 32
	// DefaultExpiry is how long verification tokens are valid.
	DefaultExpiry = 24 * time.Hour
)

// Generate creates a new random token.
// Returns (plaintext token, SHA256 hash for storage, expiry time, error).
// The plaintext is hex-encoded and safe to embed in URLs; only the hash
// may ever be persisted.
func Generate(expiry time.Duration) (string, string, time.Time, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	bytes := make([]byte, Length)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(bytes)
	hash := Hash(plaintext)
	expiresAt := time.Now().UTC().Add(expiry)

	return plaintext, hash, expiresAt, nil
}

// Hash computes the SHA256 hash of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Equal compares two token hashes in constant time.
func Equal(hash, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(candidate)) == 1
}
