package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/graphctx/internal/infrastructure/database/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply pending Postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Postgres.MigrationsPath == "" {
				return fmt.Errorf("retrievalctl: postgres.migrations_path is not configured")
			}

			dbURL := postgres.ConnString(postgres.Config{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				Database: cfg.Postgres.Database,
				SSLMode:  cfg.Postgres.SSLMode,
			})

			if err := postgres.RunMigrations(dbURL, cfg.Postgres.MigrationsPath); err != nil {
				return fmt.Errorf("retrievalctl: migration failed: %w", err)
			}

			version, dirty, err := postgres.MigrationStatus(dbURL, cfg.Postgres.MigrationsPath)
			if err != nil {
				return fmt.Errorf("retrievalctl: failed to read migration status: %w", err)
			}
			fmt.Printf("migrations applied: schema at version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	return cmd
}
