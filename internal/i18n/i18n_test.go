// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init())
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)
	assert.Equal(t, "Verify your email address", i18n.T(ctx, "email_verification_subject"))

	ctx = i18n.WithLocale(context.Background(), language.German)
	assert.Equal(t, "Bestätige deine E-Mail-Adresse", i18n.T(ctx, "email_verification_subject"))
}

func TestT_UnknownMessage(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)
	assert.Equal(t, "does_not_exist", i18n.T(ctx, "does_not_exist"))
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"VerifyURL":   "https://example.com/verify?token=abc",
		"ExpiryHours": 24,
	})

	assert.Contains(t, body, "https://example.com/verify?token=abc")
	assert.Contains(t, body, "24")
}

func TestGetLocale_Default(t *testing.T) {
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
}

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.German, i18n.MatchLanguage("de-DE,de;q=0.9"))
	assert.Equal(t, language.English, i18n.MatchLanguage("fr-FR"))
}
