// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// PasswordResetPIN stores a hashed one-time PIN for a password reset.
type PasswordResetPIN struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	PINHash   string    `db:"pin_hash" json:"-"` // SHA256 hash of the upper-cased PIN
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExpiresAt returns the moment the PIN stops being accepted.
func (p *PasswordResetPIN) ExpiresAt(validity time.Duration) time.Time {
	return p.CreatedAt.Add(validity)
}

// IsValid reports whether the PIN is still inside its validity window at now.
func (p *PasswordResetPIN) IsValid(now time.Time, validity time.Duration) bool {
	return now.Before(p.ExpiresAt(validity))
}
