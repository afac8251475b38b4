// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/vinovest/sqlx"
)

// CreatePasswordResetPIN stores a hashed PIN for an email address.
func (r *Repository) CreatePasswordResetPIN(ctx context.Context, email, pinHash string, createdAt time.Time) (*models.PasswordResetPIN, error) {
	pin := &models.PasswordResetPIN{
		Email:     NormalizeEmail(email),
		PINHash:   pinHash,
		CreatedAt: createdAt.UTC(),
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO password_reset_pins (email, pin_hash, created_at) VALUES (?, ?, ?)`,
		pin.Email, pin.PINHash, pin.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	pin.ID = id
	return pin, nil
}

// GetLatestPasswordResetPIN returns the most recently issued PIN for an email.
func (r *Repository) GetLatestPasswordResetPIN(ctx context.Context, email string) (*models.PasswordResetPIN, error) {
	var pin models.PasswordResetPIN
	err := sqlx.GetContext(ctx, r.q, &pin,
		`SELECT id, email, pin_hash, created_at FROM password_reset_pins
		WHERE email = ? ORDER BY created_at DESC, id DESC LIMIT 1`, NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &pin, nil
}

// DeletePasswordResetPIN deletes a PIN by ID.
func (r *Repository) DeletePasswordResetPIN(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM password_reset_pins WHERE id = ?`, id)
	return err
}

// DeletePasswordResetPINs deletes every PIN issued for an email.
func (r *Repository) DeletePasswordResetPINs(ctx context.Context, email string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM password_reset_pins WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeletePasswordResetPINsBefore deletes PINs issued before the cutoff.
func (r *Repository) DeletePasswordResetPINsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM password_reset_pins WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
