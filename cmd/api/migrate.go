package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"todoapi/internal/adapter/database/postgres"
	"todoapi/internal/adapter/database/sqlite"
	"todoapi/pkg/config"
)

var steps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations for the configured driver",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()

		if err != nil {
			return err
		}

		if err := migrateUp(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Database.Driver)

		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}

		cfg, err := config.Load()

		if err != nil {
			return err
		}

		if err := migrateDown(cfg, steps); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s) (%s)\n", steps, cfg.Database.Driver)

		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func migrateUp(cfg *config.Config) error {
	if cfg.Database.Driver == config.DriverPostgres {
		return postgres.RunMigrations(cfg.Database.URL, cfg.MigrationsPath())
	}

	db, err := sql.Open("sqlite3", cfg.Database.Path+"?_foreign_keys=on")

	if err != nil {
		return err
	}

	defer db.Close()

	return sqlite.RunMigrations(db, cfg.MigrationsPath())
}

func migrateDown(cfg *config.Config, steps int) error {
	if cfg.Database.Driver == config.DriverPostgres {
		return postgres.RollbackMigrations(cfg.Database.URL, cfg.MigrationsPath(), steps)
	}

	return sqlite.RollbackMigrations(cfg.Database.Path, cfg.MigrationsPath(), steps)
}
