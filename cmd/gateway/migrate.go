package main

import (
	"fmt"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("store driver %q has no migrations", cfg.Store.Driver)
			}

			logger := cfg.Logger.NewLogger()
			db, err := postgres.Connect(cmd.Context(), &cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}
