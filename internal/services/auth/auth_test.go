// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/ratelimit"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"codeberg.org/oliverandrich/go-accounts/internal/services/verification"
	"codeberg.org/oliverandrich/go-accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures sent mails instead of delivering them.
type recordingNotifier struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

type sentMail struct {
	to    string
	token string
}

func (n *recordingNotifier) SendVerification(_ context.Context, to, rawToken string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, sentMail{to: to, token: rawToken})
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, rawToken string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, sentMail{to: to, token: rawToken})
	return nil
}

func (n *recordingNotifier) lastVerification(t *testing.T) sentMail {
	t.Helper()
	require.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return len(n.verifications) > 0
	}, time.Second, 10*time.Millisecond)

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verifications[len(n.verifications)-1]
}

func (n *recordingNotifier) lastReset(t *testing.T) sentMail {
	t.Helper()
	require.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return len(n.resets) > 0
	}, time.Second, 10*time.Millisecond)

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets[len(n.resets)-1]
}

func (n *recordingNotifier) resetCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.resets)
}

type fixture struct {
	svc      *auth.Service
	store    *repository.Memory
	notifier *recordingNotifier
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Session.Secret = "test-secret-test-secret-test-secret"

	store := repository.NewMemory()
	notifier := &recordingNotifier{}

	sessions, err := session.NewService(&cfg.Session)
	require.NoError(t, err)

	client := testutil.NewTestRedis(t)
	limiter := ratelimit.New(client, "reset", cfg.Auth.RateLimitMaxAttempts,
		time.Duration(cfg.Auth.RateLimitWindowMinutes)*time.Minute)
	resetTokens := auth.NewRedisResetTokenStore(client)

	return &fixture{
		svc:      auth.NewService(store, notifier, sessions, limiter, resetTokens, cfg),
		store:    store,
		notifier: notifier,
		cfg:      cfg,
	}
}

const goodPassword = "Str0ng-Passw0rd!"

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Register(ctx, "Alice@Example.com", goodPassword, "")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, models.StatusPendingVerification, account.Status)
	assert.NotNil(t, account.VerificationTokenHash)
	assert.NotNil(t, account.VerificationTokenExpiresAt)
	assert.False(t, account.IsVerified())
	assert.NotEqual(t, goodPassword, account.PasswordHash)

	mail := f.notifier.lastVerification(t)
	assert.Equal(t, "alice@example.com", mail.to)
	assert.NotEmpty(t, mail.token)
	// The mail carries the raw secret, the account only its hash.
	assert.NotEqual(t, *account.VerificationTokenHash, mail.token)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice@example.com", goodPassword, "")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "alice@example.com", goodPassword, "")
	assert.ErrorIs(t, err, auth.ErrAccountExists)
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), "not-an-email", goodPassword, "")
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestRegister_WeakPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), "alice@example.com", "short", "")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegister_PhoneNormalized(t *testing.T) {
	f := newFixture(t)

	account, err := f.svc.Register(context.Background(), "alice@example.com", goodPassword, "+1 650 253 0000")
	require.NoError(t, err)

	require.NotNil(t, account.PhoneNumber)
	assert.Equal(t, "+16502530000", *account.PhoneNumber)
}

func TestRegister_InvalidPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), "alice@example.com", goodPassword, "12345")
	assert.ErrorIs(t, err, auth.ErrInvalidPhone)
}

func TestRegister_Disabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Auth.AllowRegistration = false

	_, err := f.svc.Register(context.Background(), "alice@example.com", goodPassword, "")
	assert.ErrorIs(t, err, auth.ErrRegistrationDisabled)
}

// registerVerified registers an account and consumes its verification token.
func registerVerified(t *testing.T, f *fixture, email string) *models.Account {
	t.Helper()
	ctx := context.Background()

	account, err := f.svc.Register(ctx, email, goodPassword, "")
	require.NoError(t, err)

	raw := f.notifier.lastVerification(t).token
	require.NoError(t, account.ConsumeVerificationToken(raw))
	require.NoError(t, f.store.Save(ctx, account))

	return account
}

func TestRegisterVerifyLogin_FullWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verifier := verification.NewService(f.store, f.notifier, nil, &f.cfg.Auth)

	account, err := f.svc.Register(ctx, "alice@example.com", goodPassword, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingVerification, account.Status)

	// Login is rejected until the emailed token is consumed.
	_, _, err = f.svc.Login(ctx, "alice@example.com", goodPassword)
	require.ErrorIs(t, err, auth.ErrEmailNotVerified)

	raw := f.notifier.lastVerification(t).token
	result, err := verifier.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.AccountID)
	assert.Equal(t, "alice@example.com", result.Email)

	signed, logged, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.Equal(t, models.StatusActive, logged.Status)
	assert.True(t, logged.IsVerified())

	// The token was consumed on the way.
	_, err = verifier.Verify(ctx, raw)
	assert.ErrorIs(t, err, verification.ErrInvalidToken)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	signed, account, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	require.NoError(t, err)

	assert.NotEmpty(t, signed)
	assert.NotNil(t, account.LastLoginAt)
	assert.Zero(t, account.FailedLoginAttempts)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	_, _, errUnknown := f.svc.Login(ctx, "nobody@example.com", goodPassword)
	_, _, errWrong := f.svc.Login(ctx, "alice@example.com", "Wr0ng-Passw0rd!")

	assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_Unverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice@example.com", goodPassword, "")
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, "alice@example.com", goodPassword)
	assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
}

func TestLogin_Deactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	require.NoError(t, f.svc.Deactivate(ctx, "alice@example.com"))

	_, _, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	for range f.cfg.Auth.MaxLoginAttempts {
		_, _, err := f.svc.Login(ctx, "alice@example.com", "Wr0ng-Passw0rd!")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	// Locked now, even with the correct password.
	_, _, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	assert.ErrorIs(t, err, auth.ErrAccountLocked)
}

func TestReactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	require.NoError(t, f.svc.Deactivate(ctx, "alice@example.com"))
	require.NoError(t, f.svc.Reactivate(ctx, "alice@example.com"))

	_, _, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	assert.NoError(t, err)
}

func TestDeactivate_MatchesRegardlessOfCasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	require.NoError(t, f.svc.Deactivate(ctx, "Alice@Example.COM"))

	account, err := f.store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, account.Status)
}

func TestReactivate_UnverifiedGoesBackToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "alice@example.com", goodPassword, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(ctx, "alice@example.com"))
	require.NoError(t, f.svc.Reactivate(ctx, "alice@example.com"))

	account, err := f.store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingVerification, account.Status)
}

func TestRequestPasswordReset_AndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))

	raw := f.notifier.lastReset(t).token
	const newPassword = "An0ther-Passw0rd!"
	require.NoError(t, f.svc.ResetPassword(ctx, raw, newPassword))

	_, _, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "alice@example.com", newPassword)
	assert.NoError(t, err)
}

func TestResetPassword_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	raw := f.notifier.lastReset(t).token

	require.NoError(t, f.svc.ResetPassword(ctx, raw, "An0ther-Passw0rd!"))

	err := f.svc.ResetPassword(ctx, raw, "Yet-An0ther-Pw!1")
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}

func TestResetPassword_ClearsLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	for range f.cfg.Auth.MaxLoginAttempts {
		_, _, _ = f.svc.Login(ctx, "alice@example.com", "Wr0ng-Passw0rd!")
	}
	_, _, err := f.svc.Login(ctx, "alice@example.com", goodPassword)
	require.ErrorIs(t, err, auth.ErrAccountLocked)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	raw := f.notifier.lastReset(t).token

	const newPassword = "An0ther-Passw0rd!"
	require.NoError(t, f.svc.ResetPassword(ctx, raw, newPassword))

	_, _, err = f.svc.Login(ctx, "alice@example.com", newPassword)
	assert.NoError(t, err)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Zero(t, f.notifier.resetCount())
}

func TestRequestPasswordReset_RateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerVerified(t, f, "alice@example.com")

	for range f.cfg.Auth.RateLimitMaxAttempts {
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	}

	err := f.svc.RequestPasswordReset(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestResetPassword_GarbageToken(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ResetPassword(context.Background(), "garbage", "An0ther-Passw0rd!")
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}
