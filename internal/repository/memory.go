// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"sync"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-memory account store with the same semantics as the
// SQLite-backed Repository, including the optimistic version guard.
type Memory struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[uuid.UUID]models.Account)}
}

// Create inserts a new account.
func (m *Memory) Create(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return ErrDuplicateEmail
		}
	}

	m.accounts[account.ID] = clone(account)
	return nil
}

// Save updates an account, failing with ErrConflict when the stored version
// differs from the caller's copy.
func (m *Memory) Save(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != account.Version {
		return ErrConflict
	}

	account.Version++
	m.accounts[account.ID] = clone(account)
	return nil
}

// FindByID retrieves an account by its identifier.
func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := clone(&account)
	return &copied, nil
}

// FindByEmail retrieves an account by its email address.
func (m *Memory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Email == email {
			copied := clone(&account)
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// FindByVerificationHash retrieves an account by its stored token hash.
func (m *Memory) FindByVerificationHash(_ context.Context, tokenHash string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.VerificationTokenHash != nil && *account.VerificationTokenHash == tokenHash {
			copied := clone(&account)
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// PruneExpiredTokens clears expired verification tokens on pending accounts.
func (m *Memory) PruneExpiredTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var pruned int64
	for id, account := range m.accounts {
		if account.Status != models.StatusPendingVerification {
			continue
		}
		if account.VerificationTokenExpiresAt == nil || !account.VerificationTokenExpiresAt.Before(now) {
			continue
		}
		account.VerificationTokenHash = nil
		account.VerificationTokenExpiresAt = nil
		account.Version++
		account.UpdatedAt = now.UTC()
		m.accounts[id] = account
		pruned++
	}
	return pruned, nil
}

// clone copies an account including its pointer fields so callers never share
// memory with the store.
func clone(a *models.Account) models.Account {
	copied := *a
	copied.PhoneNumber = clonePtr(a.PhoneNumber)
	copied.VerificationTokenHash = clonePtr(a.VerificationTokenHash)
	copied.VerificationTokenExpiresAt = clonePtr(a.VerificationTokenExpiresAt)
	copied.VerifiedAt = clonePtr(a.VerifiedAt)
	copied.LastLoginAt = clonePtr(a.LastLoginAt)
	copied.LockedUntil = clonePtr(a.LockedUntil)
	return copied
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
