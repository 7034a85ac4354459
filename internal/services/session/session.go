// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies the signed bearer credentials
// returned by a successful login.
package session

import (
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret  = errors.New("session secret is required")
	ErrInvalidToken   = errors.New("invalid session token")
	ErrExpiredToken   = errors.New("expired session token")
	ErrUnexpectedAlgo = errors.New("unexpected signing algorithm")
)

// Credential is the decoded content of a verified session token.
type Credential struct {
	AccountID uuid.UUID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with HMAC-SHA256.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewService creates a session service from the session configuration.
func NewService(cfg *config.SessionConfig) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	return &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.TTLHours) * time.Hour,
	}, nil
}

// Issue creates a signed token for the account.
func (s *Service) Issue(account *models.Account) (string, error) {
	now := time.Now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns its credential.
func (s *Service) Verify(tokenString string) (*Credential, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedAlgo
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Credential{
		AccountID: accountID,
		Email:     c.Email,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
