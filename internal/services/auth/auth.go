// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration, login and password management.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/ratelimit"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/email"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"codeberg.org/oliverandrich/go-accounts/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrAccountExists        = errors.New("account already exists")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password, so a caller cannot distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email address not verified")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// dummyHash keeps login timing consistent when the email is unknown. The
// comparison result is always discarded.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Service implements the account workflows around registration, login and
// password resets.
type Service struct {
	store       repository.Store
	notifier    email.Notifier
	sessions    *session.Service
	limiter     *ratelimit.Limiter
	resetTokens ResetTokenStore
	validator   *PasswordValidator
	cfg         *config.Config
}

// NewService wires the auth workflows. notifier, limiter and resetTokens
// may be nil: without a notifier no mail goes out, without a limiter
// nothing is throttled, without a reset token store password resets fail.
func NewService(
	store repository.Store,
	notifier email.Notifier,
	sessions *session.Service,
	limiter *ratelimit.Limiter,
	resetTokens ResetTokenStore,
	cfg *config.Config,
) *Service {
	return &Service{
		store:       store,
		notifier:    notifier,
		sessions:    sessions,
		limiter:     limiter,
		resetTokens: resetTokens,
		validator:   NewPasswordValidator(&cfg.Password),
		cfg:         cfg,
	}
}

// Register creates a pending account, attaches a verification token and
// sends the verification email in the background. phone is optional; when
// given it is normalized to E.164.
func (s *Service) Register(ctx context.Context, emailAddr, password, phone string) (*models.Account, error) {
	if !s.cfg.Auth.AllowRegistration {
		return nil, ErrRegistrationDisabled
	}

	normalized, err := NormalizeEmail(emailAddr)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := models.NewAccount(normalized, passwordHash)

	if phone != "" {
		e164, err := NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		account.PhoneNumber = &e164
	}

	rawToken, err := account.AttachVerificationToken(s.tokenExpiry())
	if err != nil {
		return nil, fmt.Errorf("attaching verification token: %w", err)
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	s.notifyVerification(ctx, account.Email, rawToken)

	return account, nil
}

// Login authenticates an account and returns a signed session token.
// Unknown email and wrong password both yield ErrInvalidCredentials; a
// bcrypt comparison runs in the unknown-email case too so the two paths
// take comparable time.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (string, *models.Account, error) {
	normalized, err := NormalizeEmail(emailAddr)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if account.IsLocked() {
		return "", nil, ErrAccountLocked
	}

	if !CheckPassword(account.PasswordHash, password) {
		account.RecordFailedLogin(s.cfg.Auth.MaxLoginAttempts, s.lockoutDuration())
		if err := s.store.Save(ctx, account); err != nil && !errors.Is(err, repository.ErrConflict) {
			slog.Warn("recording failed login", "error", err)
		}
		return "", nil, ErrInvalidCredentials
	}

	if account.Status == models.StatusInactive {
		return "", nil, ErrAccountInactive
	}

	if account.Status.RequiresVerification() {
		return "", nil, ErrEmailNotVerified
	}

	account.RecordLogin()
	if err := s.store.Save(ctx, account); err != nil {
		return "", nil, err
	}

	signed, err := s.sessions.Issue(account)
	if err != nil {
		return "", nil, err
	}

	return signed, account, nil
}

// RequestPasswordReset issues a reset token for the account and mails it.
// It deliberately reports success for unknown or inactive accounts so the
// endpoint cannot be used to probe which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	normalized, err := NormalizeEmail(emailAddr)
	if err != nil {
		return nil
	}

	if err := s.limiter.Allow(ctx, "reset:"+normalized); err != nil {
		return err
	}

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if account.Status == models.StatusInactive {
		return nil
	}

	if s.resetTokens == nil {
		slog.Warn("password reset requested but no reset token store is configured")
		return nil
	}

	raw, hash, _, err := token.Generate(s.resetExpiry())
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	if err := s.resetTokens.Store(ctx, hash, account.ID, s.resetExpiry()); err != nil {
		return err
	}

	s.notifyPasswordReset(ctx, account.Email, raw)

	return nil
}

// ResetPassword consumes a reset token and sets a new password. The token
// is single use; a second call with the same token fails. A successful
// reset also clears any login lockout.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	if s.resetTokens == nil {
		return ErrInvalidResetToken
	}

	accountID, err := s.resetTokens.Consume(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.UpdatedAt = time.Now().UTC()

	return s.store.Save(ctx, account)
}

// Deactivate transitions the account to inactive. Administrative operation.
func (s *Service) Deactivate(ctx context.Context, emailAddr string) error {
	normalized, err := NormalizeEmail(emailAddr)
	if err != nil {
		return err
	}

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		return err
	}

	account.Deactivate()
	return s.store.Save(ctx, account)
}

// Reactivate restores a deactivated account. Administrative operation.
func (s *Service) Reactivate(ctx context.Context, emailAddr string) error {
	normalized, err := NormalizeEmail(emailAddr)
	if err != nil {
		return err
	}

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		return err
	}

	account.Reactivate()
	return s.store.Save(ctx, account)
}

// NormalizeEmail validates an email address and lowercases it.
func NormalizeEmail(emailAddr string) (string, error) {
	trimmed := strings.TrimSpace(emailAddr)

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(trimmed), nil
}

func (s *Service) notifyVerification(ctx context.Context, to, rawToken string) {
	if s.notifier == nil {
		return
	}
	// Mail delivery must not block or fail the workflow.
	go func(ctx context.Context) {
		if err := s.notifier.SendVerification(ctx, to, rawToken); err != nil {
			slog.Warn("sending verification email", "error", err)
		}
	}(context.WithoutCancel(ctx))
}

func (s *Service) notifyPasswordReset(ctx context.Context, to, rawToken string) {
	if s.notifier == nil {
		return
	}
	go func(ctx context.Context) {
		if err := s.notifier.SendPasswordReset(ctx, to, rawToken); err != nil {
			slog.Warn("sending password reset email", "error", err)
		}
	}(context.WithoutCancel(ctx))
}

func (s *Service) tokenExpiry() time.Duration {
	return time.Duration(s.cfg.Auth.TokenExpiryHours) * time.Hour
}

func (s *Service) resetExpiry() time.Duration {
	return time.Duration(s.cfg.Auth.ResetTokenExpiryHours) * time.Hour
}

func (s *Service) lockoutDuration() time.Duration {
	return time.Duration(s.cfg.Auth.LockoutMinutes) * time.Minute
}
