// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// RewardSettings configures the yearly milestone notification. One row exists at most.
type RewardSettings struct {
	EnableNotifications bool    `db:"enable_notifications" json:"enable_notifications"`
	HourRequirement     float64 `db:"hour_requirement" json:"hour_requirement"`
	NotificationEmail   string  `db:"notification_email" json:"notification_email"`
}
