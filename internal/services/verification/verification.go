// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification implements the email verification workflow: looking
// up accounts by token, consuming tokens and re-issuing them.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/ratelimit"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/services/email"
	"codeberg.org/oliverandrich/go-accounts/internal/token"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for unknown, already consumed or
	// mismatched tokens. Deliberately indistinct so a caller cannot probe
	// which tokens ever existed.
	ErrInvalidToken = errors.New("invalid verification token")
	// ErrTokenExpired is returned when the token matched but its expiry
	// has passed. Expiry wins over a successful match.
	ErrTokenExpired = errors.New("verification token expired")
)

// Result describes a successful verification.
type Result struct {
	AccountID  uuid.UUID
	Email      string
	VerifiedAt time.Time
}

// Service implements token verification and resending.
type Service struct {
	store    repository.Store
	notifier email.Notifier
	limiter  *ratelimit.Limiter
	cfg      *config.AuthConfig
}

func NewService(store repository.Store, notifier email.Notifier, limiter *ratelimit.Limiter, cfg *config.AuthConfig) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Verify consumes a raw verification token: on success the account becomes
// active and the token fields are cleared, so a second call with the same
// token fails. When two calls race, the optimistic save lets exactly one
// succeed; the loser reports ErrInvalidToken like any other consumed token.
func (s *Service) Verify(ctx context.Context, rawToken string) (*Result, error) {
	account, err := s.store.FindByVerificationHash(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if err := account.ConsumeVerificationToken(rawToken); err != nil {
		switch {
		case errors.Is(err, models.ErrVerificationTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}

	if err := s.store.Save(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Result{
		AccountID:  account.ID,
		Email:      account.Email,
		VerifiedAt: *account.VerifiedAt,
	}, nil
}

// Resend rotates the verification token for a pending account and mails the
// new one; the previous token stops working. Unknown addresses and already
// verified accounts are silent no-ops so the operation leaks nothing.
func (s *Service) Resend(ctx context.Context, emailAddr string) error {
	// Accounts are stored with normalized addresses; match whatever casing
	// the user typed against that form.
	normalized, err := auth.NormalizeEmail(emailAddr)
	if err != nil {
		return nil
	}

	if err := s.limiter.Allow(ctx, "resend:"+normalized); err != nil {
		return err
	}

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if !account.Status.RequiresVerification() {
		return nil
	}

	rawToken, err := account.AttachVerificationToken(s.tokenExpiry())
	if err != nil {
		return fmt.Errorf("attaching verification token: %w", err)
	}

	if err := s.store.Save(ctx, account); err != nil {
		return err
	}

	if s.notifier != nil {
		go func(ctx context.Context) {
			if err := s.notifier.SendVerification(ctx, account.Email, rawToken); err != nil {
				slog.Warn("sending verification email", "error", err)
			}
		}(context.WithoutCancel(ctx))
	}

	return nil
}

func (s *Service) tokenExpiry() time.Duration {
	return time.Duration(s.cfg.TokenExpiryHours) * time.Hour
}
