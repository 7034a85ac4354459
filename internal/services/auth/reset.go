// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrResetTokenNotFound is returned when a reset token hash is unknown,
// already consumed or expired.
var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetTokenStore keeps password reset tokens, keyed by their SHA256 hash.
// Entries expire after the configured TTL; Consume removes the entry so a
// token can be used at most once.
type ResetTokenStore interface {
	Store(ctx context.Context, tokenHash string, accountID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (uuid.UUID, error)
}
