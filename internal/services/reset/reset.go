// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package reset implements password reset by emailed PIN.
package reset

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/keylock"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
)

const (
	// PINAlphabet omits characters that are easily confused (0/O, 1/I/L).
	PINAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// PINLength is the number of characters in a PIN.
	PINLength = 6

	DefaultValidity = 10 * time.Minute
	DefaultCooldown = 60 * time.Second
)

// GeneratePIN returns a random PIN drawn uniformly from PINAlphabet.
func GeneratePIN() (string, error) {
	buf := make([]byte, PINLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	// len(PINAlphabet) divides 256, so the modulo keeps the draw uniform.
	for i, b := range buf {
		buf[i] = PINAlphabet[int(b)%len(PINAlphabet)]
	}
	return string(buf), nil
}

// HashPIN returns the stored form of a PIN. Input is matched case-insensitively.
func HashPIN(pin string) string {
	return email.HashToken(strings.ToUpper(strings.TrimSpace(pin)))
}

// Service issues and verifies password reset PINs.
type Service struct {
	repo      *repository.Repository
	sender    email.Sender
	validity  time.Duration
	cooldown  time.Duration
	validator *auth.PasswordValidator
	locks     keylock.Locker[string]
	now       func() time.Time
}

// NewService creates a reset service. A non-positive validity or a negative
// cooldown selects the default.
func NewService(repo *repository.Repository, sender email.Sender, validity, cooldown time.Duration) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	return &Service{
		repo:      repo,
		sender:    sender,
		validity:  validity,
		cooldown:  cooldown,
		validator: auth.LengthOnlyValidator(),
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validity returns how long an issued PIN is accepted.
func (s *Service) Validity() time.Duration {
	return s.validity
}

func lockKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Issue replaces any outstanding PIN for addr with a new one and mails it.
// A PIN is issued whether or not an account exists for addr.
//
// It returns auth.ErrCooldownActive when the previous PIN is younger than the
// cooldown, and auth.ErrMailDeliveryFailed when the mail could not be sent.
// In the latter case the new PIN is withdrawn so the user can retry at once.
func (s *Service) Issue(ctx context.Context, addr string) error {
	addr = repository.NormalizeEmail(addr)

	unlock := s.locks.Lock(lockKey(addr))
	defer unlock()

	now := s.now().UTC()
	var (
		pin    string
		stored *models.PasswordResetPIN
	)
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		latest, err := tx.GetLatestPasswordResetPIN(ctx, addr)
		switch {
		case err == nil:
			if now.Sub(latest.CreatedAt) < s.cooldown {
				return auth.ErrCooldownActive
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if _, err := tx.DeletePasswordResetPINs(ctx, addr); err != nil {
			return err
		}

		pin, err = GeneratePIN()
		if err != nil {
			return err
		}

		stored, err = tx.CreatePasswordResetPIN(ctx, addr, HashPIN(pin), now)
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrCooldownActive) {
			slog.Info("pin_cooldown_active", "email", addr)
		}
		return err
	}

	if err := s.send(ctx, addr, pin); err != nil {
		slog.Error("pin_mail_failed", "email", addr, "error", err)
		if delErr := s.repo.DeletePasswordResetPIN(ctx, stored.ID); delErr != nil {
			slog.Error("pin_withdraw_failed", "email", addr, "error", delErr)
		}
		return fmt.Errorf("%w: %w", auth.ErrMailDeliveryFailed, err)
	}

	slog.Info("pin_issued", "email", addr, "expires_at", stored.ExpiresAt(s.validity))
	return nil
}

func (s *Service) send(ctx context.Context, addr, pin string) error {
	msg, err := email.NewMessage(addr, i18n.T(ctx, "email_pin_subject"), email.Content{
		Paragraphs: []string{
			i18n.TData(ctx, "email_pin_intro", map[string]any{"Email": addr}),
		},
		Code: pin,
		Footer: []string{
			i18n.TData(ctx, "email_pin_validity", map[string]any{
				"Validity": i18n.Duration(ctx, s.validity),
			}),
		},
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

// Verify checks the PIN for addr and sets a new password. The checks run in
// a fixed order: PIN and validity first (auth.ErrInvalidOrExpired), then the
// password pair (auth.ErrValidationFailed). A successful verification
// consumes the PIN.
func (s *Service) Verify(ctx context.Context, addr, pin, newPassword, confirmPassword string) error {
	addr = repository.NormalizeEmail(addr)

	unlock := s.locks.Lock(lockKey(addr))
	defer unlock()

	now := s.now().UTC()
	var userID int64
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		latest, err := tx.GetLatestPasswordResetPIN(ctx, addr)
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrInvalidOrExpired
		}
		if err != nil {
			return err
		}

		match := subtle.ConstantTimeCompare([]byte(HashPIN(pin)), []byte(latest.PINHash)) == 1
		if !match || !latest.IsValid(now, s.validity) {
			return auth.ErrInvalidOrExpired
		}

		if err := s.validator.ValidatePair(newPassword, confirmPassword); err != nil {
			return err
		}

		user, err := tx.GetUserByEmail(ctx, addr)
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrInvalidOrExpired
		}
		if err != nil {
			return err
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			return err
		}
		userID = user.ID
		return tx.DeletePasswordResetPIN(ctx, latest.ID)
	})
	if err != nil {
		slog.Info("pin_verify_failed", "email", addr, "reason", err)
		return err
	}

	slog.Info("password_reset", "user_id", userID)
	return nil
}

// Expiry returns when the outstanding PIN for addr stops being accepted.
func (s *Service) Expiry(ctx context.Context, addr string) (time.Time, error) {
	latest, err := s.repo.GetLatestPasswordResetPIN(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		return time.Time{}, auth.ErrInvalidOrExpired
	}
	if err != nil {
		return time.Time{}, err
	}
	return latest.ExpiresAt(s.validity), nil
}

// PurgeExpired deletes PINs that can no longer be redeemed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeletePasswordResetPINsBefore(ctx, s.now().Add(-s.validity))
}
