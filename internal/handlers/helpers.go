// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/middleware"
	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/session"
	"github.com/labstack/echo/v4"
)

// MessageResponse carries a translated status message.
type MessageResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

func message(c echo.Context, status int, key string) error {
	return c.JSON(status, MessageResponse{Message: i18n.T(c.Request().Context(), key)})
}

// currentUser returns the logged-in user. Routes using it sit behind
// middleware.RequireAuth.
func currentUser(c echo.Context) *models.User {
	return middleware.GetUser(c.Request().Context())
}

// currentSession returns a copy of the request's session data, or an empty one.
func currentSession(c echo.Context) session.Data {
	if data := middleware.GetSession(c.Request().Context()); data != nil {
		return *data
	}
	return session.Data{}
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter. A missing value yields def.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

func badRequest(c echo.Context) error {
	return fail(c, http.StatusBadRequest, "bad_request")
}
