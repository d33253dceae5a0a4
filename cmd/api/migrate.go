package main

import (
	"errors"

	"loan-engine/internal/adapter/repository/mysql"
	"loan-engine/internal/config"
	"loan-engine/internal/infrastructure/db"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the MySQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Store != config.StoreMySQL {
				return errors.New("migrate needs STORE=mysql")
			}
			gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
			if err != nil {
				return err
			}
			if err := mysql.Migrate(gdb); err != nil {
				return err
			}
			log.Info("schema migrated", "db", cfg.MySQLDB)
			return nil
		},
	}
}
