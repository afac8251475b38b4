// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// User is a volunteer or staff account. Email doubles as the login name.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID                    int64      `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	PhoneNumber           string     `db:"phone_number" json:"phone_number"`
	AddressLine1          string     `db:"address_line_1" json:"address_line_1"`
	AddressLine2          string     `db:"address_line_2" json:"address_line_2"`
	City                  string     `db:"city" json:"city"`
	State                 string     `db:"state" json:"state"`
	ZipCode               string     `db:"zip_code" json:"zip_code"`
	IsStaff               bool       `db:"is_staff" json:"is_staff"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	LastMilestoneSentYear int        `db:"last_milestone_sent_year" json:"-"`
	LastLogin             *time.Time `db:"last_login" json:"last_login,omitempty"`
	DateJoined            time.Time  `db:"date_joined" json:"date_joined"`
}

// FullName joins first and last name, falling back to the email address.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Profile holds the user-editable profile fields.
type Profile struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}
