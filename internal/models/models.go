// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models defines the rows stored by the repository.
package models

import (
	"math"
	"time"
)

// VolunteerTask is a category hours are logged against.
type VolunteerTask struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// VolunteerEntry is one logged block of hours.
type VolunteerEntry struct { //nolint:govet // fieldalignment not critical for models
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Date         time.Time `db:"date" json:"date"`
	Hours        float64   `db:"hours" json:"hours"`
	CategoryID   *int64    `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string   `db:"category_name" json:"category_name,omitempty"`
	UserEmail    string    `db:"user_email" json:"user_email,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// YearlyTotal is one row of the staff summary.
type YearlyTotal struct {
	UserID    int64   `db:"user_id" json:"user_id"`
	Email     string  `db:"email" json:"email"`
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Hours     float64 `db:"hours" json:"hours"`
}

// RoundHours rounds to the two decimal places hours are entered with.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
