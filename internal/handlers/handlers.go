// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON endpoints.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/activation"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/milestone"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/reset"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Deps are the services the handlers call into.
type Deps struct {
	Repo       *repository.Repository
	Sessions   *session.Manager
	Auth       *auth.Service
	Activation *activation.Service
	Reset      *reset.Service
	Milestone  *milestone.Service
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo       *repository.Repository
	sessions   *session.Manager
	auth       *auth.Service
	activation *activation.Service
	reset      *reset.Service
	milestone  *milestone.Service
	now        func() time.Time
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	return &Handlers{
		repo:       d.Repo,
		sessions:   d.Sessions,
		auth:       d.Auth,
		activation: d.Activation,
		reset:      d.Reset,
		milestone:  d.Milestone,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for default years.
func (h *Handlers) WithClock(now func() time.Time) *Handlers {
	h.now = now
	return h
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// notifyMilestone runs the milestone check for an hours mutation. Failures
// are logged; the entry write has already succeeded.
func (h *Handlers) notifyMilestone(ctx context.Context, change repository.HoursChange) {
	settings, err := h.repo.GetRewardSettings(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Error("reward_settings_unavailable", "error", err)
		return
	}

	result, err := h.milestone.Handle(ctx, settings, change)
	if err != nil {
		slog.Warn("milestone_check_failed", "user_id", change.UserID, "error", err)
		return
	}
	slog.Debug("milestone_checked", "user_id", change.UserID, "result", result)
}
