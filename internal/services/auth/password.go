// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"errors"
	"fmt"
	"unicode"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword wraps all password policy violations.
var ErrWeakPassword = errors.New("password does not meet the policy")

// PasswordValidator checks candidate passwords against the configured policy.
type PasswordValidator struct {
	cfg *config.PasswordConfig
}

func NewPasswordValidator(cfg *config.PasswordConfig) *PasswordValidator {
	return &PasswordValidator{cfg: cfg}
}

// Validate returns an error wrapping ErrWeakPassword describing the first
// violated rule, or nil when the password passes.
func (v *PasswordValidator) Validate(password string) error {
	runes := []rune(password)

	if len(runes) < v.cfg.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, v.cfg.MinLength)
	}
	if v.cfg.MaxLength > 0 && len(runes) > v.cfg.MaxLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, v.cfg.MaxLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	allDigits := true

	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
			allDigits = false
		case unicode.IsLower(r):
			hasLower = true
			allDigits = false
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
			allDigits = false
		}
	}

	if allDigits {
		return fmt.Errorf("%w: must not be entirely numeric", ErrWeakPassword)
	}
	if v.cfg.RequireUppercase && !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	}
	if v.cfg.RequireLowercase && !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	}
	if v.cfg.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}
	if v.cfg.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: must contain a special character", ErrWeakPassword)
	}

	return nil
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash against a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
