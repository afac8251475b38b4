// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides the Echo middleware shared by all routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"codeberg.org/bcmtb/volunteer-tracker/internal/ctxkeys"
	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/session"
	"github.com/labstack/echo/v4"
)

// UserLoader is an interface for loading full user data
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadSession decodes the session cookie and, for a logged-in session, loads
// the user into the request context. Sessions of deleted or deactivated
// accounts are treated as anonymous.
func LoadSession(sessions *session.Manager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			data, err := sessions.Parse(req)
			if err != nil {
				slog.Warn("session_parse_failed", "error", err)
			}
			if data == nil {
				return next(c)
			}

			ctx := context.WithValue(req.Context(), ctxkeys.Session{}, data)
			if data.Authenticated() {
				user, err := users.GetUserByID(ctx, data.UserID)
				switch {
				case err != nil:
					slog.Debug("session_user_unavailable", "user_id", data.UserID, "error", err)
				case !user.IsActive:
					slog.Debug("session_user_inactive", "user_id", data.UserID)
				default:
					ctx = context.WithValue(ctx, ctxkeys.User{}, user)
				}
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a logged-in user.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if GetUser(c.Request().Context()) == nil {
			return deny(c, http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

// RequireStaff rejects requests from anyone but staff.
func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := GetUser(c.Request().Context())
		if user == nil {
			return deny(c, http.StatusUnauthorized, "unauthorized")
		}
		if !user.IsStaff {
			return deny(c, http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}

func deny(c echo.Context, status int, code string) error {
	return c.JSON(status, map[string]string{
		"error": i18n.T(c.Request().Context(), "error_"+code),
		"code":  code,
	})
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// GetSession returns the decoded session, or nil when the request carried none.
func GetSession(ctx context.Context) *session.Data {
	if data, ok := ctx.Value(ctxkeys.Session{}).(*session.Data); ok {
		return data
	}
	return nil
}

// WithUser stores user in ctx. Tests use it to skip the cookie round trip.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User{}, user)
}

// WithSession stores data in ctx.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, ctxkeys.Session{}, data)
}
