// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"coursestore/internal/auth"
	"coursestore/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("migrations applied", "driver", cfg.DBDriver)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert membership pricing, the default administrator and sample courses",
		Long: `Seed the database with the membership pricing settings, the default
administrator account and sample courses. Parts that already exist are
left untouched, so the command is safe to run more than once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Seed(cmd.Context(), db)
		},
	}
}

func rehashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rehash-passwords",
		Short: "Replace stored plain-text passwords with bcrypt hashes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := auth.NewService(db, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), nil, nil, nil)
			n, err := svc.RehashPasswords(cmd.Context())
			if err != nil {
				return fmt.Errorf("rehash passwords: %w", err)
			}
			slog.Info("passwords rehashed", "count", n)
			return nil
		},
	}
}
