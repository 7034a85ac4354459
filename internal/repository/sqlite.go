// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/google/uuid"
	"github.com/vinovest/sqlx"
)

// Repository is the SQLite-backed account store.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const accountColumns = `id, email, phone_number, password_hash, status,
	verification_token_hash, verification_token_expires_at, verified_at,
	last_login_at, failed_login_attempts, locked_until, version,
	created_at, updated_at`

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES
			(:id, :email, :phone_number, :password_hash, :status,
			:verification_token_hash, :verification_token_expires_at, :verified_at,
			:last_login_at, :failed_login_attempts, :locked_until, :version,
			:created_at, :updated_at)`,
		account)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email") {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Save updates an existing account under an optimistic version guard. When the
// row was modified since the account was read the update matches nothing and
// ErrConflict is returned; the caller must re-read and decide.
func (r *Repository) Save(ctx context.Context, account *models.Account) error {
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE accounts SET
			email = :email,
			phone_number = :phone_number,
			password_hash = :password_hash,
			status = :status,
			verification_token_hash = :verification_token_hash,
			verification_token_expires_at = :verification_token_expires_at,
			verified_at = :verified_at,
			last_login_at = :last_login_at,
			failed_login_attempts = :failed_login_attempts,
			locked_until = :locked_until,
			version = :version + 1,
			updated_at = :updated_at
		WHERE id = :id AND version = :version`,
		account)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}

	account.Version++
	return nil
}

// FindByID retrieves an account by its identifier.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// FindByEmail retrieves an account by its email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// FindByVerificationHash retrieves an account by its stored token hash.
// Lookup is always by hash; raw tokens are never persisted.
func (r *Repository) FindByVerificationHash(ctx context.Context, tokenHash string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE verification_token_hash = ?`, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// PruneExpiredTokens clears expired verification tokens on pending accounts.
func (r *Repository) PruneExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET
			verification_token_hash = NULL,
			verification_token_expires_at = NULL,
			version = version + 1,
			updated_at = ?
		WHERE status = ? AND verification_token_expires_at < ?`,
		time.Now().UTC(), models.StatusPendingVerification, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// wrapError converts database errors to repository errors.
func wrapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
