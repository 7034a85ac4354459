// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"errors"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned when a phone number cannot be parsed or is
// not a valid number.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses a phone number and returns it in E.164 format.
// Numbers without a country prefix are rejected.
func NormalizePhone(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
