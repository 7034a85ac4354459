// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultValidator() *auth.PasswordValidator {
	cfg := config.Default()
	return auth.NewPasswordValidator(&cfg.Password)
}

func TestPasswordValidator(t *testing.T) {
	v := defaultValidator()

	assert.NoError(t, v.Validate("Str0ng-Passw0rd!"))
}

func TestPasswordValidator_Rejections(t *testing.T) {
	v := defaultValidator()

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1!"},
		{"no uppercase", "str0ng-passw0rd!"},
		{"no lowercase", "STR0NG-PASSW0RD!"},
		{"no digit", "Strong-Password!"},
		{"no special", "Str0ngPassw0rd1"},
		{"entirely numeric", "123456789012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Validate(tt.password), auth.ErrWeakPassword)
		})
	}
}

func TestPasswordValidator_MaxLength(t *testing.T) {
	cfg := config.Default()
	cfg.Password.MaxLength = 12
	v := auth.NewPasswordValidator(&cfg.Password)

	assert.ErrorIs(t, v.Validate("Str0ng-Passw0rd!"), auth.ErrWeakPassword)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("Str0ng-Passw0rd!")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword(hash, "Str0ng-Passw0rd!"))
	assert.False(t, auth.CheckPassword(hash, "Wr0ng-Passw0rd!"))
}

func TestNormalizeEmail(t *testing.T) {
	email, err := auth.NormalizeEmail("Alice@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = auth.NormalizeEmail("Alice Smith <alice@example.com>")
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)

	_, err = auth.NormalizeEmail("not-an-email")
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestNormalizePhone(t *testing.T) {
	e164, err := auth.NormalizePhone("+1 650 253 0000")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", e164)

	_, err = auth.NormalizePhone("12345")
	assert.ErrorIs(t, err, auth.ErrInvalidPhone)
}
