// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/vinovest/sqlx"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone_number,
	address_line_1, address_line_2, city, state, zip_code, is_staff, is_active,
	last_milestone_sent_year, last_login, date_joined`

// NormalizeEmail lower-cases the domain part of an address, leaving the local part intact.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// CreateUser inserts a new user and fills in its ID and join date.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, phone_number,
			address_line_1, address_line_2, city, state, zip_code, is_staff, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.PhoneNumber,
		user.AddressLine1, user.AddressLine2, user.City, user.State, user.ZipCode,
		user.IsStaff, user.IsActive, user.DateJoined)
	if err != nil {
		return wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.q, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.q, &user,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// EmailExists checks if an email is already registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, r.q, &count,
		`SELECT COUNT(*) FROM users WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListActiveUsers returns all active users ordered by email.
func (r *Repository) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := sqlx.SelectContext(ctx, r.q, &users,
		`SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY email`)
	return users, err
}

// UpdateProfile overwrites the editable profile fields of a user.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, p models.Profile) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, phone_number = ?, address_line_1 = ?,
			address_line_2 = ?, city = ?, state = ?, zip_code = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.PhoneNumber, p.AddressLine1, p.AddressLine2,
		p.City, p.State, p.ZipCode, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateUserPassword stores a new password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetUserActive sets the active flag of a user.
func (r *Repository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetUserStaff sets the staff flag of a user.
func (r *Repository) SetUserStaff(ctx context.Context, userID int64, staff bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET is_staff = ? WHERE id = ?`, staff, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetLastMilestoneSentYear records the year of the last milestone notification.
// Zero clears the marker.
func (r *Repository) SetLastMilestoneSentYear(ctx context.Context, userID int64, year int) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET last_milestone_sent_year = ? WHERE id = ?`, year, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), userID)
	return err
}
