// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers account notification mails over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Notifier is the outbound mail surface the workflows depend on.
// Implementations must treat the raw tokens as secrets: they go into
// the mail body and nowhere else.
type Notifier interface {
	SendVerification(ctx context.Context, toEmail, rawToken string) error
	SendPasswordReset(ctx context.Context, toEmail, rawToken string) error
}

// Service sends notification emails via SMTP using go-mail.
type Service struct {
	cfg              *config.SMTPConfig
	baseURL          string
	tokenExpiryHours int
	resetExpiryHours int
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string, auth *config.AuthConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	// Mail bodies come from the translation bundle; load it up front so a
	// failure surfaces here instead of inside a send goroutine.
	if err := i18n.Init(); err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	return &Service{
		cfg:              cfg,
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		tokenExpiryHours: auth.TokenExpiryHours,
		resetExpiryHours: auth.ResetTokenExpiryHours,
	}, nil
}

// SendVerification sends a verification email carrying the raw token.
func (s *Service) SendVerification(ctx context.Context, toEmail, rawToken string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, rawToken)

	subject := i18n.T(ctx, "email_verification_subject")
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"VerifyURL":   verifyURL,
		"ExpiryHours": s.tokenExpiryHours,
	})

	return s.send(toEmail, subject, body)
}

// SendPasswordReset sends a password reset email carrying the raw token.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, rawToken string) error {
	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, rawToken)

	subject := i18n.T(ctx, "password_reset_subject")
	body := i18n.TData(ctx, "password_reset_body", map[string]any{
		"ResetURL":    resetURL,
		"ExpiryHours": s.resetExpiryHours,
	})

	return s.send(toEmail, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
