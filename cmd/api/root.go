package main

import (
	"log/slog"

	"loan-engine/internal/config"
	"loan-engine/internal/logging"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "loan-engine",
		Short:        "Collateralized loan engine",
		Long:         `Runs the collateralized loan engine: loan requests, funding, repayment and collateral claims over HTTP.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// setup loads the environment config and the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)
	return cfg, log, nil
}
