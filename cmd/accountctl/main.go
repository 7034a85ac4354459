// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// accountctl is the administrative CLI for the account store.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"codeberg.org/oliverandrich/go-accounts/internal/database"
	"codeberg.org/oliverandrich/go-accounts/internal/logging"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

func main() {
	cmd := &cli.Command{
		Name:  "accountctl",
		Usage: "Manage the account store",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Manage database migrations",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the last migration",
						Action: migrateDown,
					},
					{
						Name:   "reset",
						Usage:  "Roll back all migrations",
						Action: migrateReset,
					},
				},
			},
			{
				Name:   "prune",
				Usage:  "Clear expired verification tokens from pending accounts",
				Action: prune,
			},
			{
				Name:      "create",
				Usage:     "Register a new account",
				ArgsUsage: "<email> <password>",
				Action:    create,
			},
			{
				Name:      "deactivate",
				Usage:     "Deactivate an account",
				ArgsUsage: "<email>",
				Action:    deactivate,
			},
			{
				Name:      "reactivate",
				Usage:     "Reactivate a deactivated account",
				ArgsUsage: "<email>",
				Action:    reactivate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(cmd *cli.Command) (*config.Config, *sqlx.DB, error) {
	cfg := config.NewFromCLI(cmd)
	logging.Setup(cfg.Log)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return cfg, db, nil
}

func migrateUp(_ context.Context, cmd *cli.Command) error {
	// Open already applies pending migrations.
	_, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("migrations applied")
	return nil
}

func migrateDown(_ context.Context, cmd *cli.Command) error {
	_, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.MigrateDown(db.DB); err != nil {
		return err
	}

	slog.Info("rolled back last migration")
	return nil
}

func migrateReset(_ context.Context, cmd *cli.Command) error {
	_, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.MigrateReset(db.DB); err != nil {
		return err
	}

	slog.Info("rolled back all migrations")
	return nil
}

func prune(ctx context.Context, cmd *cli.Command) error {
	_, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := repository.New(db).PruneExpiredTokens(ctx)
	if err != nil {
		return err
	}

	slog.Info("pruned expired verification tokens", "accounts", count)
	return nil
}

func newAuthService(cfg *config.Config, db *sqlx.DB) *auth.Service {
	// No mailer, limiter, reset store or session issuer: the CLI only
	// drives the account lifecycle, never login or outbound delivery.
	return auth.NewService(repository.New(db), nil, nil, nil, nil, cfg)
}

func create(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: accountctl create <email> <password>")
	}

	cfg, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := newAuthService(cfg, db)

	account, err := svc.Register(ctx, cmd.Args().Get(0), cmd.Args().Get(1), "")
	if err != nil {
		return err
	}

	slog.Info("account created", "id", account.ID, "email", account.Email, "status", account.Status)
	return nil
}

func deactivate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: accountctl deactivate <email>")
	}

	cfg, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := newAuthService(cfg, db)

	if err := svc.Deactivate(ctx, cmd.Args().Get(0)); err != nil {
		return err
	}

	slog.Info("account deactivated", "email", cmd.Args().Get(0))
	return nil
}

func reactivate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: accountctl reactivate <email>")
	}

	cfg, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := newAuthService(cfg, db)

	if err := svc.Reactivate(ctx, cmd.Args().Get(0)); err != nil {
		return err
	}

	slog.Info("account reactivated", "email", cmd.Args().Get(0))
	return nil
}
