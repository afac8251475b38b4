// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth manages accounts and defines the errors shared by the
// credential flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// ActivationSender mails an activation link for an inactive account.
type ActivationSender interface {
	Send(ctx context.Context, user *models.User) error
}

type Service struct {
	repo              *repository.Repository
	activation        ActivationSender
	passwordValidator *PasswordValidator
	now               func() time.Time
}

// NewService creates the account service. activation may be nil, in which
// case registration does not send mail.
func NewService(repo *repository.Repository, activation ActivationSender) *Service {
	return &Service{
		repo:              repo,
		activation:        activation,
		passwordValidator: DefaultPasswordValidator(),
		now:               time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Register creates an inactive account and mails the activation link. When
// the mail cannot be sent the account is kept and the returned error matches
// ErrMailDeliveryFailed, so the user can request a new link.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email, err := ValidateEmail(params.Email)
	if err != nil {
		return nil, err
	}

	if err := s.passwordValidator.ValidatePair(params.Password, params.PasswordConfirm,
		email, params.FirstName, params.LastName); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		DateJoined:   s.now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	if s.activation != nil {
		if err := s.activation.Send(ctx, user); err != nil {
			return user, err
		}
	}

	return user, nil
}

// Login authenticates a user. Inactive accounts with a correct password get
// ErrAccountInactive.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		slog.Info("login_pending_activation", "user_id", user.ID)
		return user, ErrAccountInactive
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("last_login_update_failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	slog.Info("login_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// ChangePassword changes a user's password (when they know their current password)
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword, confirmPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.passwordValidator.ValidatePair(newPassword, confirmPassword,
		user.Email, user.FirstName, user.LastName); err != nil {
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "user_id", userID)
	return nil
}

// UpdateProfile stores the editable profile fields and returns the updated user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, p models.Profile) (*models.User, error) {
	p = trimProfile(p)
	if err := s.repo.UpdateProfile(ctx, userID, p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.repo.GetUserByID(ctx, userID)
}

// CreateSuperuser creates an active staff account without sending mail.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.passwordValidator.Validate(password, email).Err(); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		IsStaff:      true,
		IsActive:     true,
		DateJoined:   s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("superuser_created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// ValidateEmail checks the address format and returns it normalized.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return repository.NormalizeEmail(email), nil
}

func trimProfile(p models.Profile) models.Profile {
	return models.Profile{
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PhoneNumber:  strings.TrimSpace(p.PhoneNumber),
		AddressLine1: strings.TrimSpace(p.AddressLine1),
		AddressLine2: strings.TrimSpace(p.AddressLine2),
		City:         strings.TrimSpace(p.City),
		State:        strings.TrimSpace(p.State),
		ZipCode:      strings.TrimSpace(p.ZipCode),
	}
}
