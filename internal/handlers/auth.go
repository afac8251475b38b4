// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// UserResponse wraps a user with an optional status message.
type UserResponse struct {
	Message string       `json:"message,omitempty"`
	Warning string       `json:"warning,omitempty"`
	User    *models.User `json:"user"`
}

// Register creates an inactive account and mails the activation link.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	ctx := c.Request().Context()
	user, err := h.auth.Register(ctx, auth.RegisterParams(req))
	if err != nil && user == nil {
		return respondError(c, err)
	}

	resp := UserResponse{Message: i18n.T(ctx, "msg_registered"), User: user}
	if err != nil {
		// The account exists; a new link can be requested.
		slog.Warn("activation_mail_failed", "user_id", user.ID, "error", err)
		resp.Warning = i18n.T(ctx, "error_mail_delivery_failed")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Activate redeems an activation link.
func (h *Handlers) Activate(c echo.Context) error {
	user, err := h.activation.Activate(c.Request().Context(), c.Param("uidb64"), c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, UserResponse{
		Message: i18n.T(c.Request().Context(), "msg_account_activated"),
		User:    user,
	})
}

// EmailRequest is the request body of endpoints taking a single address.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResendActivation mails a new activation link. The response does not
// reveal whether an inactive account exists.
func (h *Handlers) ResendActivation(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	addr, err := auth.ValidateEmail(req.Email)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.activation.Resend(c.Request().Context(), addr); err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "msg_activation_sent")
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and sets the session cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrAccountInactive) {
		return c.JSON(http.StatusForbidden, map[string]any{
			"error":              i18n.T(c.Request().Context(), "error_account_inactive"),
			"code":               "account_inactive",
			"pending_activation": true,
		})
	}
	if err != nil {
		return respondError(c, err)
	}

	cookie, err := h.sessions.Create(user.ID, user.Email, user.IsStaff)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, UserResponse{User: user})
}

// Logout clears the session cookie.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return message(c, http.StatusOK, "msg_logged_out")
}

// PasswordReset mails a PIN and remembers the address in the session for
// the verify step.
func (h *Handlers) PasswordReset(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	addr, err := auth.ValidateEmail(req.Email)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.reset.Issue(c.Request().Context(), addr); err != nil {
		return respondError(c, err)
	}

	data := currentSession(c)
	data.ResetEmail = addr
	cookie, err := h.sessions.Save(data)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	return message(c, http.StatusOK, "msg_pin_sent")
}

// ExpiryResponse drives the countdown on the verify form.
type ExpiryResponse struct {
	Email            string    `json:"email"`
	ExpiresAt        time.Time `json:"expires_at"`
	SecondsRemaining int64     `json:"seconds_remaining"`
}

// PasswordResetExpiry reports when the outstanding PIN expires.
func (h *Handlers) PasswordResetExpiry(c echo.Context) error {
	addr := currentSession(c).ResetEmail
	if addr == "" {
		return respondError(c, auth.ErrInvalidOrExpired)
	}

	expires, err := h.reset.Expiry(c.Request().Context(), addr)
	if err != nil {
		return respondError(c, err)
	}

	remaining := max(int64(expires.Sub(h.now()).Seconds()), 0)
	return c.JSON(http.StatusOK, ExpiryResponse{
		Email:            addr,
		ExpiresAt:        expires,
		SecondsRemaining: remaining,
	})
}

// VerifyRequest is the request body for redeeming a PIN.
type VerifyRequest struct {
	PIN             string `json:"pin"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// PasswordResetVerify checks the PIN and sets the new password.
func (h *Handlers) PasswordResetVerify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	data := currentSession(c)
	if data.ResetEmail == "" {
		return respondError(c, auth.ErrInvalidOrExpired)
	}

	err := h.reset.Verify(c.Request().Context(), data.ResetEmail, req.PIN, req.Password, req.PasswordConfirm)
	if err != nil {
		return respondError(c, err)
	}

	data.ResetEmail = ""
	if data.Authenticated() {
		cookie, err := h.sessions.Save(data)
		if err != nil {
			return respondError(c, err)
		}
		c.SetCookie(cookie)
	} else {
		c.SetCookie(h.sessions.Clear())
	}

	return message(c, http.StatusOK, "msg_password_reset")
}
