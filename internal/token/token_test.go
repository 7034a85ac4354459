// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	raw, hash, expiresAt, err := token.Generate(24 * time.Hour)

	require.NoError(t, err)
	assert.Len(t, raw, token.Length*2) // hex encoding doubles the length
	assert.Equal(t, token.Hash(raw), hash)
	assert.NotEqual(t, raw, hash)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}

func TestGenerate_DefaultExpiry(t *testing.T) {
	_, _, expiresAt, err := token.Generate(0)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(token.DefaultExpiry), expiresAt, time.Minute)
}

func TestGenerate_Unique(t *testing.T) {
	raw1, hash1, _, err := token.Generate(time.Hour)
	require.NoError(t, err)
	raw2, hash2, _, err := token.Generate(time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, raw1, raw2)
	assert.NotEqual(t, hash1, hash2)
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, token.Hash("secret"), token.Hash("secret"))
	assert.NotEqual(t, token.Hash("secret"), token.Hash("secret2"))
}

func TestEqual(t *testing.T) {
	hash := token.Hash("secret")

	assert.True(t, token.Equal(hash, token.Hash("secret")))
	assert.False(t, token.Equal(hash, token.Hash("other")))
	assert.False(t, token.Equal(hash, ""))
}
