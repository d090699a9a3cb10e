package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/pillars-backend/internal/app"
	"github.com/yungbote/pillars-backend/internal/data/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg, err := app.LoadConfig(log)
			if err != nil {
				return err
			}
			theDB, err := app.OpenDB(log, cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := theDB.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := db.AutoMigrateAll(theDB); err != nil {
				return err
			}
			log.Info("migration complete", "db_driver", cfg.DBDriver)
			return nil
		},
	}
}
