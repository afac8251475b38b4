// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import "errors"

// Errors shared by the credential flows. Callers match them with errors.Is.
var (
	// ErrCooldownActive is returned when a PIN for the same email was issued too recently.
	ErrCooldownActive = errors.New("credential issued too recently")
	// ErrInvalidOrExpired covers a missing, mismatched, tampered or expired credential.
	ErrInvalidOrExpired = errors.New("credential is invalid or expired")
	// ErrUnknownAccount is returned when a credential names an account that does not exist.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrValidationFailed is returned for unacceptable input such as mismatched passwords.
	ErrValidationFailed = errors.New("validation failed")
	// ErrMailDeliveryFailed is returned when an email could not be sent. It is recoverable.
	ErrMailDeliveryFailed = errors.New("mail delivery failed")
)

// Account errors.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is pending activation")
	ErrInvalidEmail       = errors.New("invalid email format")
)
