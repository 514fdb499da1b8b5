package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hostel-backend/config"
	"hostel-backend/internal/db"
	"hostel-backend/internal/logger"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hosteld",
		Short:         "Hostel management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
			}
			if err := logger.Init(&loaded.Logger); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cfg = loaded
			logger.Get().Info("configuration loaded", "path", configPath)
			return nil
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML configuration")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newReconcileCmd())
	return root
}

// openDB connects and migrates the configured database.
func openDB() (*gorm.DB, error) {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return gormDB, nil
}
