// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateAndFind(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	account := models.NewAccount("alice@example.com", "hash")
	require.NoError(t, store.Create(ctx, account))

	found, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	found, err = store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Email, found.Email)

	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemory_DuplicateEmail(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, models.NewAccount("alice@example.com", "hash")))

	err := store.Create(ctx, models.NewAccount("alice@example.com", "other"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestMemory_FindByVerificationHash(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	account := models.NewAccount("alice@example.com", "hash")
	_, err := account.AttachVerificationToken(time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, account))

	found, err := store.FindByVerificationHash(ctx, *account.VerificationTokenHash)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = store.FindByVerificationHash(ctx, "nonexistent")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemory_SaveVersionConflict(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	account := models.NewAccount("alice@example.com", "hash")
	raw, err := account.AttachVerificationToken(time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, account))

	first, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, first.ConsumeVerificationToken(raw))
	require.NoError(t, store.Save(ctx, first))

	require.NoError(t, second.ConsumeVerificationToken(raw))
	assert.ErrorIs(t, store.Save(ctx, second), repository.ErrConflict)
}

func TestMemory_SaveUnknownAccount(t *testing.T) {
	store := repository.NewMemory()

	err := store.Save(context.Background(), models.NewAccount("alice@example.com", "hash"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemory_CallersDoNotShareState(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	account := models.NewAccount("alice@example.com", "hash")
	require.NoError(t, store.Create(ctx, account))

	found, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	found.Email = "mutated@example.com"

	again, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", again.Email)
}

func TestMemory_PruneExpiredTokens(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()

	expired := models.NewAccount("expired@example.com", "hash")
	_, err := expired.AttachVerificationToken(time.Hour)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	expired.VerificationTokenExpiresAt = &past
	require.NoError(t, store.Create(ctx, expired))

	fresh := models.NewAccount("fresh@example.com", "hash")
	_, err = fresh.AttachVerificationToken(time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, fresh))

	pruned, err := store.PruneExpiredTokens(ctx)

	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	found, err := store.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, found.VerificationTokenHash)
}
