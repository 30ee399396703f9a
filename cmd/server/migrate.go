package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"account_backend/internal/platform/db"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the user table",
		Long:  `Connect to the configured database and create or update the user table, then exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	gdb, err := db.Open(dbConfig(cfg), slog.Default())
	if err != nil {
		slog.Error("database open failed", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if err := db.Migrate(gdb); err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
