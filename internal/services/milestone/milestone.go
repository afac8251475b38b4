// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package milestone notifies staff when a volunteer reaches the yearly hour
// requirement.
package milestone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/keylock"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
)

// Result describes what a check did.
type Result string

const (
	// ResultSkipped means notifications are not configured or disabled.
	ResultSkipped Result = "skipped"
	// ResultUnchanged means the marker already matched the total.
	ResultUnchanged Result = "unchanged"
	// ResultNotified means staff were mailed and the marker was set.
	ResultNotified Result = "notified"
	// ResultCleared means the total fell below the requirement and the marker was reset.
	ResultCleared Result = "cleared"
)

// Service evaluates yearly totals against the reward settings.
type Service struct {
	repo   *repository.Repository
	sender email.Sender
	locks  keylock.Locker[int64]
	now    func() time.Time
}

// NewService creates a milestone notifier.
func NewService(repo *repository.Repository, sender email.Sender) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Handle reacts to an hours mutation. Only the current calendar year is
// evaluated, and only when the change touches it.
func (s *Service) Handle(ctx context.Context, settings *models.RewardSettings, change repository.HoursChange) (Result, error) {
	year := s.now().UTC().Year()
	if !change.Touches(year) {
		return ResultUnchanged, nil
	}
	return s.OnHoursChanged(ctx, settings, change.UserID, year)
}

// OnHoursChanged recomputes the user's total for year and keeps the
// notification marker in step with it. Staff are mailed at most once per user
// and year; the marker is written only after the mail went out, so a failed
// delivery is retried on the next change. Repeated calls without a change in
// hours have no further effect.
func (s *Service) OnHoursChanged(ctx context.Context, settings *models.RewardSettings, userID int64, year int) (Result, error) {
	if settings == nil || !settings.EnableNotifications {
		return ResultSkipped, nil
	}
	if settings.NotificationEmail == "" {
		slog.Warn("milestone_no_recipient", "user_id", userID)
		return ResultSkipped, nil
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ResultSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	total, err := s.repo.SumHours(ctx, userID, year)
	if err != nil {
		return "", fmt.Errorf("failed to sum hours: %w", err)
	}

	switch {
	case total >= settings.HourRequirement:
		if user.LastMilestoneSentYear == year {
			return ResultUnchanged, nil
		}
		if err := s.notify(ctx, settings, user, total, year); err != nil {
			slog.Error("milestone_mail_failed", "user_id", userID, "year", year, "error", err)
			return "", fmt.Errorf("%w: %w", auth.ErrMailDeliveryFailed, err)
		}
		if err := s.repo.SetLastMilestoneSentYear(ctx, userID, year); err != nil {
			return "", fmt.Errorf("failed to record milestone: %w", err)
		}
		slog.Info("milestone_sent", "user_id", userID, "year", year, "total", total)
		return ResultNotified, nil

	case user.LastMilestoneSentYear == year:
		if err := s.repo.SetLastMilestoneSentYear(ctx, userID, 0); err != nil {
			return "", fmt.Errorf("failed to clear milestone: %w", err)
		}
		slog.Info("milestone_cleared", "user_id", userID, "year", year, "total", total)
		return ResultCleared, nil
	}

	return ResultUnchanged, nil
}

func (s *Service) notify(ctx context.Context, settings *models.RewardSettings, user *models.User, total float64, year int) error {
	data := map[string]any{
		"Name":        user.FullName(),
		"Email":       user.Email,
		"Year":        year,
		"Total":       FormatHours(total),
		"Requirement": FormatHours(settings.HourRequirement),
	}

	msg, err := email.NewMessage(settings.NotificationEmail, i18n.TData(ctx, "email_milestone_subject", data), email.Content{
		Paragraphs: []string{i18n.TData(ctx, "email_milestone_body", data)},
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

// FormatHours renders hours without trailing zeros.
func FormatHours(h float64) string {
	return strconv.FormatFloat(models.RoundHours(h), 'f', -1, 64)
}
