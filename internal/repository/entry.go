// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/vinovest/sqlx"
)

// HoursChange describes a mutation of a user's hours entries. Every entry
// write returns one so callers can react to changed yearly totals.
type HoursChange struct {
	UserID int64
	Years  []int // calendar years whose totals may have changed
}

// Touches reports whether the change affects the given year.
func (c HoursChange) Touches(year int) bool {
	return slices.Contains(c.Years, year)
}

func newHoursChange(userID int64, dates ...time.Time) HoursChange {
	change := HoursChange{UserID: userID}
	for _, d := range dates {
		if !slices.Contains(change.Years, d.Year()) {
			change.Years = append(change.Years, d.Year())
		}
	}
	return change
}

// EntryFilter narrows ListEntries. Zero values match everything.
type EntryFilter struct {
	UserID int64
	Year   int
}

const entrySelect = `SELECT e.id, e.user_id, e.date, e.hours, e.category_id, e.created_at,
	t.name AS category_name, u.email AS user_email
	FROM volunteer_entries e
	JOIN users u ON u.id = e.user_id
	LEFT JOIN volunteer_tasks t ON t.id = e.category_id`

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// yearBounds returns the half-open date range [start, end) of a calendar year.
func yearBounds(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-01-01", year+1)
}

// CreateEntry inserts an hours entry.
func (r *Repository) CreateEntry(ctx context.Context, entry *models.VolunteerEntry) (HoursChange, error) {
	entry.Date = DateOnly(entry.Date)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO volunteer_entries (user_id, date, hours, category_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.Date, entry.Hours, entry.CategoryID, entry.CreatedAt)
	if err != nil {
		return HoursChange{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return HoursChange{}, err
	}
	entry.ID = id
	return newHoursChange(entry.UserID, entry.Date), nil
}

// GetEntry retrieves an hours entry by ID.
func (r *Repository) GetEntry(ctx context.Context, id int64) (*models.VolunteerEntry, error) {
	var entry models.VolunteerEntry
	if err := sqlx.GetContext(ctx, r.q, &entry, entrySelect+` WHERE e.id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &entry, nil
}

// UpdateEntry overwrites date, hours and category of an entry. The returned
// change covers both the previous and the new year.
func (r *Repository) UpdateEntry(ctx context.Context, entry *models.VolunteerEntry) (HoursChange, error) {
	var change HoursChange
	err := r.InTx(ctx, func(tx *Repository) error {
		old, err := tx.GetEntry(ctx, entry.ID)
		if err != nil {
			return err
		}

		entry.Date = DateOnly(entry.Date)
		entry.UserID = old.UserID
		_, err = tx.q.ExecContext(ctx,
			`UPDATE volunteer_entries SET date = ?, hours = ?, category_id = ? WHERE id = ?`,
			entry.Date, entry.Hours, entry.CategoryID, entry.ID)
		if err != nil {
			return err
		}

		change = newHoursChange(old.UserID, old.Date, entry.Date)
		return nil
	})
	return change, err
}

// DeleteEntry removes an hours entry.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) (HoursChange, error) {
	var change HoursChange
	err := r.InTx(ctx, func(tx *Repository) error {
		old, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM volunteer_entries WHERE id = ?`, id); err != nil {
			return err
		}
		change = newHoursChange(old.UserID, old.Date)
		return nil
	})
	return change, err
}

// ListEntries returns entries newest first.
func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]models.VolunteerEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != 0 {
		where = append(where, "e.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Year != 0 {
		start, end := yearBounds(filter.Year)
		where = append(where, "e.date >= ? AND e.date < ?")
		args = append(args, start, end)
	}

	query := entrySelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.date DESC, e.id DESC"

	entries := []models.VolunteerEntry{}
	err := sqlx.SelectContext(ctx, r.q, &entries, query, args...)
	return entries, err
}

// SumHours returns a user's total hours for a calendar year.
func (r *Repository) SumHours(ctx context.Context, userID int64, year int) (float64, error) {
	start, end := yearBounds(year)
	var total float64
	err := sqlx.GetContext(ctx, r.q, &total,
		`SELECT COALESCE(SUM(hours), 0) FROM volunteer_entries WHERE user_id = ? AND date >= ? AND date < ?`,
		userID, start, end)
	if err != nil {
		return 0, err
	}
	return models.RoundHours(total), nil
}

// YearlyTotals returns the hours per user for a calendar year, highest first.
// Users without entries in that year are omitted.
func (r *Repository) YearlyTotals(ctx context.Context, year int) ([]models.YearlyTotal, error) {
	start, end := yearBounds(year)
	totals := []models.YearlyTotal{}
	err := sqlx.SelectContext(ctx, r.q, &totals,
		`SELECT u.id AS user_id, u.email, u.first_name, u.last_name, SUM(e.hours) AS hours
		FROM volunteer_entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.date >= ? AND e.date < ?
		GROUP BY u.id, u.email, u.first_name, u.last_name
		ORDER BY hours DESC, u.email`,
		start, end)
	if err != nil {
		return nil, err
	}
	for i := range totals {
		totals[i].Hours = models.RoundHours(totals[i].Hours)
	}
	return totals, nil
}
