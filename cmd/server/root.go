package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"account_backend/internal/config"
	"account_backend/internal/platform/logging"
)

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "account-server",
		Short:         "User account service",
		Long:          `Serves registration, login and password change over HTTP, backed by sqlite or PostgreSQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		cmd.PrintErrln("config:", err)
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty, os.Stderr)
	if err != nil {
		cmd.PrintErrln("logger:", err)
		return nil, err
	}
	slog.SetDefault(logger)
	return cfg, nil
}
