// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/vinovest/sqlx"
)

// ErrSettingsExist is returned when a second reward settings row is created.
var ErrSettingsExist = errors.New("reward settings already exist")

// GetRewardSettings returns the reward settings or ErrNotFound when none are configured.
func (r *Repository) GetRewardSettings(ctx context.Context) (*models.RewardSettings, error) {
	var s models.RewardSettings
	err := sqlx.GetContext(ctx, r.q, &s,
		`SELECT enable_notifications, hour_requirement, notification_email FROM reward_settings WHERE id = 1`)
	if err != nil {
		return nil, wrapError(err)
	}
	return &s, nil
}

// CreateRewardSettings creates the reward settings row.
func (r *Repository) CreateRewardSettings(ctx context.Context, s models.RewardSettings) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO reward_settings (id, enable_notifications, hour_requirement, notification_email)
		VALUES (1, ?, ?, ?)`,
		s.EnableNotifications, s.HourRequirement, s.NotificationEmail)
	if isUniqueViolation(err) {
		return ErrSettingsExist
	}
	return err
}

// UpdateRewardSettings overwrites the existing reward settings.
func (r *Repository) UpdateRewardSettings(ctx context.Context, s models.RewardSettings) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE reward_settings SET enable_notifications = ?, hour_requirement = ?, notification_email = ?
		WHERE id = 1`,
		s.EnableNotifications, s.HourRequirement, s.NotificationEmail)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
