// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the HTTP
// server.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/bcmtb/volunteer-tracker/internal/config"
	"codeberg.org/bcmtb/volunteer-tracker/internal/database"
	"codeberg.org/bcmtb/volunteer-tracker/internal/handlers"
	"codeberg.org/bcmtb/volunteer-tracker/internal/i18n"
	"codeberg.org/bcmtb/volunteer-tracker/internal/repository"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/activation"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/milestone"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/reminder"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/reset"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/session"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/tokens"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// purgeInterval is how often expired PINs are deleted.
const purgeInterval = 10 * time.Minute

// Services holds the application services built from one configuration.
type Services struct {
	Repo       *repository.Repository
	Sessions   *session.Manager
	Auth       *auth.Service
	Activation *activation.Service
	Reset      *reset.Service
	Milestone  *milestone.Service
	Reminder   *reminder.Service
}

// NewServices builds every service on top of db.
func NewServices(cfg *config.Config, db *sqlx.DB, sender email.Sender) (*Services, error) {
	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sessions, err := session.NewManager(&cfg.Session, secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	repo := repository.New(db)
	gen := tokens.NewGenerator(cfg.Tokens.SecretKey, cfg.Tokens.ActivationTimeout)
	act := activation.NewService(repo, sender, gen, cfg.Server.BaseURL)

	return &Services{
		Repo:       repo,
		Sessions:   sessions,
		Auth:       auth.NewService(repo, act),
		Activation: act,
		Reset:      reset.NewService(repo, sender, cfg.Tokens.PINTimeout, cfg.Tokens.PINCooldown),
		Milestone:  milestone.NewService(repo, sender),
		Reminder:   reminder.NewService(repo, sender),
	}, nil
}

// Open loads the configuration, prepares logging and opens the database.
// Callers close the returned database.
func Open(cmd *cli.Command) (*config.Config, *sqlx.DB, error) {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := ensureDevSecrets(cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := i18n.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to init i18n: %w", err)
	}

	// Open applies pending migrations.
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// ensureDevSecrets fills in a random token secret for local development.
// Links signed with it stop working after a restart.
func ensureDevSecrets(cfg *config.Config) error {
	if cfg.Tokens.SecretKey != "" || !config.IsLocalhost(cfg.Server.Host) {
		return nil
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate secret key: %w", err)
	}
	cfg.Tokens.SecretKey = hex.EncodeToString(raw)
	slog.Warn("no secret key configured, using a random one for this process")
	return nil
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg, db, err := Open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	sender, err := email.NewSender(&cfg.SMTP, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create mail sender: %w", err)
	}
	if cfg.SMTP.Host == "" {
		slog.Warn("no SMTP host configured, mails are written to the log")
	}

	svc, err := NewServices(cfg, db, sender)
	if err != nil {
		return err
	}

	e := NewEcho(cfg, svc)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeLoop(ctx, svc.Reset, purgeInterval)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// NewEcho builds the Echo instance with middleware and routes.
func NewEcho(cfg *config.Config, svc *Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg, svc)

	handlers.New(handlers.Deps{
		Repo:       svc.Repo,
		Sessions:   svc.Sessions,
		Auth:       svc.Auth,
		Activation: svc.Activation,
		Reset:      svc.Reset,
		Milestone:  svc.Milestone,
	}).Routes(e)

	return e
}

// purgeLoop deletes expired PINs until ctx is done.
func purgeLoop(ctx context.Context, svc *reset.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				slog.Error("pin_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pins_purged", "count", n)
			}
		}
	}
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
