package cmd

import (
	"context"
	"fmt"
	"log"

	"medcare-admin/internal/infrastructure"
	"medcare-admin/internal/server"
	"medcare-admin/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load access rules and sample data",
	Long: `Load the default access rules and sample users, suppliers and products.
Tables that already hold data are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := infrastructure.MigrateAllSchemas(db); err != nil {
			return err
		}

		services, err := server.NewServices(cmd.Context(), cfg, db)
		if err != nil {
			return err
		}
		return seedSampleData(cmd.Context(), db, services)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedSampleData(ctx context.Context, db *gorm.DB, services *server.Services) error {
	seedManager := infrastructure.NewSeedDataManager(db, services.Users, services.Suppliers, services.Products)
	if err := seedManager.SeedAll(ctx, service.NewDatabaseAccessRuleStore(db)); err != nil {
		return fmt.Errorf("failed to setup seed data: %w", err)
	}
	log.Println("Sample data loaded")
	return nil
}
