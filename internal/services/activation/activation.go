// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package activation mails and redeems account activation links.
package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/keylock"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/tokens"
)

// Service issues activation links and activates accounts.
type Service struct {
	repo    *repository.Repository
	sender  email.Sender
	tokens  *tokens.Generator
	baseURL string
	locks   keylock.Locker[int64]
}

// NewService creates an activation service. Links point at baseURL.
func NewService(repo *repository.Repository, sender email.Sender, gen *tokens.Generator, baseURL string) *Service {
	return &Service{
		repo:    repo,
		sender:  sender,
		tokens:  gen,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Link returns the activation URL for the user's current state.
func (s *Service) Link(user *models.User) (string, error) {
	token, err := s.tokens.Make(user)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/auth/activate/%s/%s", s.baseURL, tokens.EncodeUID(user.ID), token), nil
}

// Send mails an activation link to the user. Delivery failures match
// auth.ErrMailDeliveryFailed.
func (s *Service) Send(ctx context.Context, user *models.User) error {
	link, err := s.Link(user)
	if err != nil {
		return err
	}

	msg, err := email.NewMessage(user.Email, i18n.T(ctx, "email_activation_subject"), email.Content{
		Paragraphs: []string{
			i18n.TData(ctx, "email_activation_intro", map[string]any{"Name": user.FullName()}),
		},
		Link: link,
		Footer: []string{
			i18n.TData(ctx, "email_activation_validity", map[string]any{
				"Validity": i18n.Duration(ctx, s.tokens.Validity()),
			}),
		},
	})
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		slog.Error("activation_mail_failed", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %w", auth.ErrMailDeliveryFailed, err)
	}

	slog.Info("activation_mail_sent", "user_id", user.ID)
	return nil
}

// Resend mails a fresh link to an inactive account. Unknown and already
// active addresses are ignored without error.
func (s *Service) Resend(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("activation_resend_ignored", "reason", "unknown_account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsActive {
		slog.Info("activation_resend_ignored", "user_id", user.ID, "reason", "already_active")
		return nil
	}
	return s.Send(ctx, user)
}

// Activate redeems a link. It returns auth.ErrUnknownAccount when uidb64
// does not name an account and auth.ErrInvalidOrExpired when the token does
// not verify. A token works once: activation changes the state it is bound to.
func (s *Service) Activate(ctx context.Context, uidb64, token string) (*models.User, error) {
	id, err := tokens.DecodeUID(uidb64)
	if err != nil {
		return nil, auth.ErrUnknownAccount
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var user *models.User
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		user, err = tx.GetUserByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrUnknownAccount
		}
		if err != nil {
			return err
		}

		if err := s.tokens.Check(user, token); err != nil {
			slog.Warn("activation_rejected", "user_id", id, "reason", err)
			return auth.ErrInvalidOrExpired
		}

		if err := tx.SetUserActive(ctx, id, true); err != nil {
			return err
		}
		user.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("account_activated", "user_id", id)
	return user, nil
}
