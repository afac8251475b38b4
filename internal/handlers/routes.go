// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/bcmtb/volunteer-tracker/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Routes registers all endpoints on e. Session loading is expected to run
// as global middleware.
func (h *Handlers) Routes(e *echo.Echo) {
	e.GET("/health", h.Health)

	a := e.Group("/auth")
	a.POST("/register", h.Register)
	a.GET("/activate/:uidb64/:token", h.Activate)
	a.POST("/resend-activation", h.ResendActivation)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.POST("/password-reset", h.PasswordReset)
	a.GET("/password-reset/verify", h.PasswordResetExpiry)
	a.POST("/password-reset/verify", h.PasswordResetVerify)

	p := e.Group("", middleware.RequireAuth)
	p.GET("/profile", h.Profile)
	p.PUT("/profile", h.UpdateProfile)
	p.POST("/profile/password", h.ChangePassword)
	p.GET("/entries", h.ListEntries)
	p.POST("/entries", h.CreateEntry)
	p.PUT("/entries/:id", h.UpdateEntry)
	p.DELETE("/entries/:id", h.DeleteEntry)
	p.GET("/categories", h.ListCategories)

	s := e.Group("/admin", middleware.RequireStaff)
	s.POST("/categories", h.CreateCategory)
	s.GET("/rewards", h.RewardSettings)
	s.POST("/rewards", h.CreateRewardSettings)
	s.PUT("/rewards", h.UpdateRewardSettings)
	s.GET("/summary", h.Summary)
}
