// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"codeberg.org/bcmtb/volunteer-tracker/internal/config"
	"codeberg.org/bcmtb/volunteer-tracker/internal/database"
	"codeberg.org/bcmtb/volunteer-tracker/internal/server"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/auth"
	"codeberg.org/bcmtb/volunteer-tracker/internal/services/email"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "volunteer-tracker",
		Usage:   "Track volunteer hours",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server",
				Action: server.Run,
			},
			migrateCommand(),
			createSuperuserCommand(),
			remindCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{Name: "up", Usage: "Apply all pending migrations", Action: withDB(database.RunMigrations)},
			{Name: "down", Usage: "Roll back the last migration", Action: withDB(database.MigrateDown)},
			{Name: "reset", Usage: "Roll back all migrations", Action: withDB(database.MigrateReset)},
			{Name: "status", Usage: "Show migration status", Action: withDB(database.MigrationStatus)},
		},
	}
}

// withDB opens the configured database (which applies pending migrations)
// and runs fn against it.
func withDB(fn func(db *sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		_, db, err := server.Open(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return fn(db.DB)
	}
}

func createSuperuserCommand() *cli.Command {
	return &cli.Command{
		Name:  "createsuperuser",
		Usage: "Create an active staff account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Password",
				Required: true,
				Sources:  cli.EnvVars("SUPERUSER_PASSWORD"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, db, err := server.Open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc, err := server.NewServices(cfg, db, email.NewLogSender(slog.Default()))
			if err != nil {
				return err
			}

			user, err := svc.Auth.CreateSuperuser(ctx, cmd.String("email"), cmd.String("password"))
			var pwErr *auth.PasswordValidationError
			if errors.As(err, &pwErr) {
				return fmt.Errorf("password rejected: %v", pwErr.Messages())
			}
			if err != nil {
				return err
			}

			fmt.Printf("Superuser %s created (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
}

func remindCommand() *cli.Command {
	return &cli.Command{
		Name:  "remind",
		Usage: "Mail the yearly reminder to submit hours to every active volunteer",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "List recipients without sending"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, db, err := server.Open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			sender, err := email.NewSender(&cfg.SMTP, slog.Default())
			if err != nil {
				return err
			}
			svc, err := server.NewServices(cfg, db, sender)
			if err != nil {
				return err
			}

			dryRun := cmd.Bool("dry-run")
			report, err := svc.Reminder.Run(ctx, dryRun)
			for _, addr := range report.Recipients {
				fmt.Println(addr)
			}
			if dryRun {
				fmt.Printf("%d recipients for %d (dry run)\n", len(report.Recipients), report.Year)
				return err
			}
			fmt.Printf("Sent %d of %d reminders for %d\n",
				len(report.Recipients)-len(report.Failed), len(report.Recipients), report.Year)
			return err
		},
	}
}
