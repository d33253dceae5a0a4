package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-engine/internal/adapter/repository/mysql"
	"loan-engine/internal/config"
	"loan-engine/internal/infrastructure/db"
	"loan-engine/pkg/clock"

	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.AppPort = port
			}
			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate && cfg.Store == config.StoreMySQL {
				gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
				if err != nil {
					return err
				}
				if err := mysql.Migrate(gdb); err != nil {
					return err
				}
				if sqlDB, err := gdb.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, clock.NewSystem(), log)
			if err != nil {
				return err
			}
			defer a.Close()

			addr := ":" + cfg.AppPort
			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", addr, "store", cfg.Store)
				errCh <- a.echo.Start(addr)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
				log.Info("shutting down")
			}
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := a.echo.Shutdown(sctx); err != nil {
				log.Error("graceful shutdown", "error", err)
				return a.echo.Close()
			}
			log.Info("stopped")
			return nil
		},
	}
	cmd.Flags().StringP("port", "p", "", "Override APP_PORT")
	cmd.Flags().Bool("migrate", false, "Migrate the MySQL schema before serving")
	return cmd
}
