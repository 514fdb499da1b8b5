package main

import (
	"github.com/spf13/cobra"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed access rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := openDB()
			if err != nil {
				return err
			}
			if _, err := auth.NewPolicy(gormDB); err != nil {
				return err
			}
			logger.WithComponent("migrate").Info("database schema is up to date")
			return nil
		},
	}
}
