// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"github.com/labstack/echo/v4"
)

// maxHours is the exclusive upper bound of a single entry.
const maxHours = 1000

// EntryRequest is the request body for creating or updating an entry.
// UserID is honoured for staff only.
type EntryRequest struct {
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	CategoryID *int64  `json:"category_id"`
	UserID     int64   `json:"user_id"`
}

// parseEntry validates req and returns the entry it describes.
func (h *Handlers) parseEntry(ctx context.Context, req EntryRequest) (*models.VolunteerEntry, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, fieldError("date_invalid")
	}
	hours := models.RoundHours(req.Hours)
	if hours <= 0 || hours >= maxHours {
		return nil, fieldError("hours_invalid")
	}
	if req.CategoryID != nil {
		_, err := h.repo.GetCategory(ctx, *req.CategoryID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("category_unknown")
		}
		if err != nil {
			return nil, err
		}
	}
	return &models.VolunteerEntry{Date: date, Hours: hours, CategoryID: req.CategoryID}, nil
}

// loadEntry returns the entry named in the path if the current user may
// see it. Other volunteers' entries are reported as not found.
func (h *Handlers) loadEntry(c echo.Context) (*models.VolunteerEntry, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, errBadRequest
	}
	entry, err := h.repo.GetEntry(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	user := currentUser(c)
	if !user.IsStaff && entry.UserID != user.ID {
		return nil, repository.ErrNotFound
	}
	return entry, nil
}

// ListEntries returns the current user's entries. Staff see everyone's and
// may filter by ?user_id=. Both may filter by ?year=.
func (h *Handlers) ListEntries(c echo.Context) error {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return badRequest(c)
	}

	user := currentUser(c)
	filter := repository.EntryFilter{UserID: user.ID, Year: year}
	if user.IsStaff {
		uid, ok := queryInt(c, "user_id", 0)
		if !ok {
			return badRequest(c)
		}
		filter.UserID = int64(uid)
	}

	entries, err := h.repo.ListEntries(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

// CreateEntry logs hours and runs the milestone check.
func (h *Handlers) CreateEntry(c echo.Context) error {
	var req EntryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	ctx := c.Request().Context()
	entry, err := h.parseEntry(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	user := currentUser(c)
	entry.UserID = user.ID
	if user.IsStaff && req.UserID != 0 {
		if _, err := h.repo.GetUserByID(ctx, req.UserID); err != nil {
			return respondError(c, err)
		}
		entry.UserID = req.UserID
	}

	change, err := h.repo.CreateEntry(ctx, entry)
	if err != nil {
		return respondError(c, err)
	}
	h.notifyMilestone(ctx, change)

	created, err := h.repo.GetEntry(ctx, entry.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateEntry changes date, hours and category of an entry.
func (h *Handlers) UpdateEntry(c echo.Context) error {
	existing, err := h.loadEntry(c)
	if err != nil {
		return respondError(c, err)
	}

	var req EntryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	ctx := c.Request().Context()
	entry, err := h.parseEntry(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	entry.ID = existing.ID

	change, err := h.repo.UpdateEntry(ctx, entry)
	if err != nil {
		return respondError(c, err)
	}
	h.notifyMilestone(ctx, change)

	updated, err := h.repo.GetEntry(ctx, entry.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteEntry removes an entry.
func (h *Handlers) DeleteEntry(c echo.Context) error {
	existing, err := h.loadEntry(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	change, err := h.repo.DeleteEntry(ctx, existing.ID)
	if err != nil {
		return respondError(c, err)
	}
	h.notifyMilestone(ctx, change)

	return c.NoContent(http.StatusNoContent)
}

// ListCategories returns all task categories.
func (h *Handlers) ListCategories(c echo.Context) error {
	categories, err := h.repo.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": categories})
}
