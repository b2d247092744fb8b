package cmd

import (
	"fmt"
	"os"

	"medcare-admin/internal/config"
	"medcare-admin/internal/infrastructure"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "medcare-admin",
	Short: "MedCare Admin - pharmacy store administration backend",
	Long: `MedCare Admin serves the REST API behind the pharmacy storefront and its
admin dashboard: accounts, suppliers, inventory, orders, payments and reports.

Configuration is read from config.yaml (./, ./config/ or /etc/medcare/) and
MEDCARE_* environment variables, e.g. MEDCARE_DATABASE_DSN.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase loads the configuration and connects to the database
func openDatabase() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := infrastructure.ConnectDatabase(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
