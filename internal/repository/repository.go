// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository persists accounts. It provides a SQLite-backed store and
// an in-memory store with identical semantics for tests.
package repository

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an email address is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrConflict is returned when a save loses an optimistic-version race.
	// Exactly one of two concurrent token consumptions observes this.
	ErrConflict = errors.New("account was modified concurrently")
)

// Store is the account persistence collaborator consumed by the workflows.
//
// Save uses optimistic versioning: it only succeeds when the account's version
// matches the stored row and bumps the version on success.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByVerificationHash(ctx context.Context, tokenHash string) (*models.Account, error)
	// PruneExpiredTokens clears token fields on pending accounts whose
	// verification token expiry has passed. Returns the number of accounts
	// touched.
	PruneExpiredTokens(ctx context.Context) (int64, error)
}
