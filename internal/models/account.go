// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models holds the persisted domain entities.
package models

import (
	"errors"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/token"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
)

// CanLogin reports whether the status permits authentication.
func (s Status) CanLogin() bool {
	return s == StatusActive
}

// RequiresVerification reports whether the account still needs email verification.
func (s Status) RequiresVerification() bool {
	return s == StatusPendingVerification
}

var (
	// ErrNoVerificationToken is returned when no token is currently attached.
	ErrNoVerificationToken = errors.New("no verification token attached")
	// ErrVerificationTokenExpired is returned when the attached token is past its expiry.
	ErrVerificationTokenExpired = errors.New("verification token expired")
	// ErrVerificationTokenMismatch is returned when the candidate token does not hash
	// to the stored value.
	ErrVerificationTokenMismatch = errors.New("verification token mismatch")
)

// Account is the persisted identity record for a user.
//
// VerificationTokenHash and VerificationTokenExpiresAt are either both set or
// both nil. Only the SHA256 hash of a verification token is ever stored; the
// raw secret exists transiently in the workflow that generated it.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID                         uuid.UUID  `db:"id" json:"id"`
	Email                      string     `db:"email" json:"email"`
	PhoneNumber                *string    `db:"phone_number" json:"phone_number,omitempty"`
	PasswordHash               string     `db:"password_hash" json:"-"`
	Status                     Status     `db:"status" json:"status"`
	VerificationTokenHash      *string    `db:"verification_token_hash" json:"-"`
	VerificationTokenExpiresAt *time.Time `db:"verification_token_expires_at" json:"-"`
	VerifiedAt                 *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	LastLoginAt                *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	FailedLoginAttempts        int        `db:"failed_login_attempts" json:"-"`
	LockedUntil                *time.Time `db:"locked_until" json:"-"`
	Version                    int64      `db:"version" json:"-"`
	CreatedAt                  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time  `db:"updated_at" json:"updated_at"`
}

// NewAccount creates an account in pending_verification state.
func NewAccount(email, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Status:       StatusPendingVerification,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AttachVerificationToken generates a fresh token, stores its hash and expiry
// on the account and returns the raw secret. Any previously attached token is
// invalidated. The caller owns one-time delivery of the raw value; it must
// never be logged or persisted.
func (a *Account) AttachVerificationToken(expiry time.Duration) (string, error) {
	raw, hash, expiresAt, err := token.Generate(expiry)
	if err != nil {
		return "", err
	}

	a.VerificationTokenHash = &hash
	a.VerificationTokenExpiresAt = &expiresAt
	a.UpdatedAt = time.Now().UTC()

	return raw, nil
}

// ConsumeVerificationToken validates the candidate against the stored hash and,
// on success, activates the account and clears both token fields. The failure
// kinds are distinct: ErrNoVerificationToken when nothing is attached (also the
// result of consuming twice), ErrVerificationTokenExpired when the expiry has
// passed, ErrVerificationTokenMismatch when the hashes differ.
func (a *Account) ConsumeVerificationToken(candidate string) error {
	if a.VerificationTokenHash == nil || a.VerificationTokenExpiresAt == nil {
		return ErrNoVerificationToken
	}

	if time.Now().After(*a.VerificationTokenExpiresAt) {
		return ErrVerificationTokenExpired
	}

	if !token.Equal(*a.VerificationTokenHash, token.Hash(candidate)) {
		return ErrVerificationTokenMismatch
	}

	now := time.Now().UTC()
	a.Status = StatusActive
	a.VerifiedAt = &now
	a.VerificationTokenHash = nil
	a.VerificationTokenExpiresAt = nil
	a.UpdatedAt = now

	return nil
}

// IsVerified reports whether the email address has been verified.
func (a *Account) IsVerified() bool {
	return a.VerifiedAt != nil
}

// IsLocked reports whether the account is currently locked out after too many
// failed login attempts.
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && time.Now().Before(*a.LockedUntil)
}

// RecordFailedLogin increments the failure counter and locks the account once
// maxAttempts is reached.
func (a *Account) RecordFailedLogin(maxAttempts int, lockout time.Duration) {
	now := time.Now().UTC()
	a.FailedLoginAttempts++
	a.UpdatedAt = now

	if maxAttempts > 0 && a.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockout)
		a.LockedUntil = &until
	}
}

// RecordLogin notes a successful authentication and resets lockout state.
func (a *Account) RecordLogin() {
	now := time.Now().UTC()
	a.LastLoginAt = &now
	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = now
}

// Deactivate transitions the account to inactive. Administrative operation.
func (a *Account) Deactivate() {
	a.Status = StatusInactive
	a.UpdatedAt = time.Now().UTC()
}

// Reactivate restores a deactivated account. The resulting status depends on
// whether the email was verified before deactivation.
func (a *Account) Reactivate() {
	if a.Status != StatusInactive {
		return
	}
	if a.IsVerified() {
		a.Status = StatusActive
	} else {
		a.Status = StatusPendingVerification
	}
	a.UpdatedAt = time.Now().UTC()
}
