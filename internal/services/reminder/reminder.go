// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package reminder mails the yearly "submit your hours" reminder.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/milestone"
)

// Report summarizes a reminder run.
type Report struct {
	Year       int
	Recipients []string
	Failed     []string
}

// Service sends reminders to every active account.
type Service struct {
	repo   *repository.Repository
	sender email.Sender
	now    func() time.Time
}

// NewService creates a reminder service.
func NewService(repo *repository.Repository, sender email.Sender) *Service {
	return &Service{repo: repo, sender: sender, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run mails every active user. With dryRun set it only lists recipients.
// Delivery failures do not stop the run; they are collected in the report
// and the returned error matches auth.ErrMailDeliveryFailed.
func (s *Service) Run(ctx context.Context, dryRun bool) (Report, error) {
	report := Report{Year: s.now().UTC().Year()}

	users, err := s.repo.ListActiveUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		user := &users[i]
		report.Recipients = append(report.Recipients, user.Email)
		if dryRun {
			slog.Info("reminder_dry_run", "email", user.Email)
			continue
		}

		if err := s.remind(ctx, user, report.Year); err != nil {
			slog.Error("reminder_failed", "email", user.Email, "error", err)
			report.Failed = append(report.Failed, user.Email)
			continue
		}
		slog.Info("reminder_sent", "email", user.Email)
	}

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%w: %d of %d reminders", auth.ErrMailDeliveryFailed, len(report.Failed), len(report.Recipients))
	}
	return report, nil
}

func (s *Service) remind(ctx context.Context, user *models.User, year int) error {
	total, err := s.repo.SumHours(ctx, user.ID, year)
	if err != nil {
		return err
	}

	name := user.FirstName
	if name == "" {
		name = user.Email
	}
	data := map[string]any{"Name": name, "Year": year, "Total": milestone.FormatHours(total)}

	msg, err := email.NewMessage(user.Email, i18n.TData(ctx, "email_reminder_subject", data), email.Content{
		Paragraphs: []string{
			i18n.TData(ctx, "email_reminder_body", data),
			i18n.TData(ctx, "email_reminder_total", data),
		},
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}
