package cmd

import (
	"log"

	"medcare-admin/internal/infrastructure"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := infrastructure.MigrateAllSchemas(db); err != nil {
			return err
		}
		log.Println("Database schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
