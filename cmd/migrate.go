package main

import (
	"context"

	"profilehub/config"
	"profilehub/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newMigrateStepCommand("up", "Apply all pending migrations", database.Up))
	cmd.AddCommand(newMigrateStepCommand("down", "Roll back the latest migration", database.Down))
	cmd.AddCommand(newMigrateStepCommand("status", "Print migration status", database.Status))
	return cmd
}

func newMigrateStepCommand(use, short string, step func(context.Context, *gorm.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			db, err := config.ConnectionDb(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer config.CloseDb(db)
			return step(ctx, db)
		},
	}
}
