// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/labstack/echo/v4"
)

// Profile returns the logged-in user.
func (h *Handlers) Profile(c echo.Context) error {
	return c.JSON(http.StatusOK, UserResponse{User: currentUser(c)})
}

// UpdateProfile stores the editable profile fields.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	var p models.Profile
	if err := c.Bind(&p); err != nil {
		return badRequest(c)
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), currentUser(c).ID, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, UserResponse{User: user})
}

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ChangePassword sets a new password after checking the current one. The
// session stays valid.
func (h *Handlers) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	err := h.auth.ChangePassword(c.Request().Context(), currentUser(c).ID,
		req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "msg_password_changed")
}
