// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// CategoryRequest is the request body for creating a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a task category.
func (h *Handlers) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if strings.TrimSpace(req.Name) == "" {
		return respondError(c, fieldError("name_required"))
	}

	task, err := h.repo.CreateCategory(c.Request().Context(), req.Name)
	if errors.Is(err, repository.ErrDuplicate) {
		return fail(c, http.StatusConflict, "category_exists")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

// RewardSettings returns the reward settings.
func (h *Handlers) RewardSettings(c echo.Context) error {
	s, err := h.repo.GetRewardSettings(c.Request().Context())
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "settings_missing")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func parseRewardSettings(c echo.Context) (models.RewardSettings, error) {
	var s models.RewardSettings
	if err := c.Bind(&s); err != nil {
		return s, errBadRequest
	}
	if s.HourRequirement <= 0 {
		return s, fieldError("requirement_invalid")
	}
	addr, err := auth.ValidateEmail(s.NotificationEmail)
	if err != nil {
		return s, err
	}
	s.NotificationEmail = addr
	return s, nil
}

// CreateRewardSettings creates the settings singleton. A second call fails
// with 409.
func (h *Handlers) CreateRewardSettings(c echo.Context) error {
	s, err := parseRewardSettings(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repo.CreateRewardSettings(c.Request().Context(), s); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateRewardSettings overwrites the settings singleton.
func (h *Handlers) UpdateRewardSettings(c echo.Context) error {
	s, err := parseRewardSettings(c)
	if err != nil {
		return respondError(c, err)
	}
	err = h.repo.UpdateRewardSettings(c.Request().Context(), s)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "settings_missing")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SummaryResponse lists yearly totals per volunteer.
type SummaryResponse struct {
	Year            int                  `json:"year"`
	HourRequirement float64              `json:"hour_requirement,omitempty"`
	Totals          []models.YearlyTotal `json:"totals"`
}

// Summary returns the hours per volunteer for ?year=, defaulting to the
// current year.
func (h *Handlers) Summary(c echo.Context) error {
	year, ok := queryInt(c, "year", h.now().UTC().Year())
	if !ok || year < 1 {
		return badRequest(c)
	}

	ctx := c.Request().Context()
	totals, err := h.repo.YearlyTotals(ctx, year)
	if err != nil {
		return respondError(c, err)
	}

	resp := SummaryResponse{Year: year, Totals: totals}
	settings, err := h.repo.GetRewardSettings(ctx)
	switch {
	case err == nil:
		resp.HourRequirement = settings.HourRequirement
	case !errors.Is(err, repository.ErrNotFound):
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
