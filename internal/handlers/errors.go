// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// fail writes a translated error. code is the message key without the
// "error_" prefix.
func fail(c echo.Context, status int, code string) error {
	return c.JSON(status, ErrorResponse{
		Error: i18n.T(c.Request().Context(), "error_"+code),
		Code:  code,
	})
}

// fieldError rejects one input field. Its value is the message code.
type fieldError string

func (e fieldError) Error() string { return "invalid input: " + string(e) }

var errBadRequest = errors.New("bad request")

// errorStatus maps service errors to a status and message code. Unknown
// accounts share the invalid_or_expired message.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{auth.ErrCooldownActive, http.StatusTooManyRequests, "cooldown_active"},
	{auth.ErrInvalidOrExpired, http.StatusBadRequest, "invalid_or_expired"},
	{auth.ErrUnknownAccount, http.StatusBadRequest, "invalid_or_expired"},
	{auth.ErrMailDeliveryFailed, http.StatusServiceUnavailable, "mail_delivery_failed"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
	{auth.ErrUserExists, http.StatusConflict, "email_taken"},
	{auth.ErrInvalidEmail, http.StatusUnprocessableEntity, "email_invalid"},
	{repository.ErrSettingsExist, http.StatusConflict, "settings_exist"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

// respondError translates err into a JSON error response.
func respondError(c echo.Context, err error) error {
	var pwErr *auth.PasswordValidationError
	if errors.As(err, &pwErr) {
		return c.JSON(http.StatusUnprocessableEntity, passwordErrorResponse(c, pwErr))
	}
	var fe fieldError
	if errors.As(err, &fe) {
		return fail(c, http.StatusUnprocessableEntity, string(fe))
	}
	if errors.Is(err, auth.ErrValidationFailed) {
		return fail(c, http.StatusUnprocessableEntity, "validation_failed")
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return fail(c, m.status, m.code)
		}
	}

	slog.Error("request_failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return fail(c, http.StatusInternalServerError, "internal")
}

func passwordErrorResponse(c echo.Context, pwErr *auth.PasswordValidationError) ErrorResponse {
	ctx := c.Request().Context()
	resp := ErrorResponse{Code: "validation_failed"}
	for _, e := range pwErr.Errors {
		var msg string
		switch e.Code {
		case auth.CodeMismatch:
			msg = i18n.T(ctx, "error_passwords_mismatch")
		case auth.CodeMinLength:
			msg = i18n.TData(ctx, "error_password_too_short", map[string]any{"Min": auth.MinPasswordLength})
		case auth.CodeMaxLength:
			msg = i18n.TData(ctx, "error_password_too_long", map[string]any{"Max": auth.MaxPasswordLength})
		case auth.CodeEntirelyNumeric:
			msg = i18n.T(ctx, "error_password_numeric")
		case auth.CodeTooSimilar:
			msg = i18n.T(ctx, "error_password_similar")
		default:
			msg = e.Message
		}
		resp.Details = append(resp.Details, msg)
	}
	if len(resp.Details) > 0 {
		resp.Error = resp.Details[0]
	} else {
		resp.Error = i18n.T(ctx, "error_validation_failed")
	}
	return resp
}
