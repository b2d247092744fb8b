package cmd

import (
	"fmt"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/infrastructure"
	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/spf13/cobra"
)

var adminFlags struct {
	email    string
	password string
	name     string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(adminFlags.password) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}

		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := infrastructure.MigrateAllSchemas(db); err != nil {
			return err
		}

		authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
		users := service.NewUserService(db, authService)
		user, err := users.CreateUser(cmd.Context(), &service.CreateUserRequest{
			Name:     adminFlags.name,
			Email:    adminFlags.email,
			Password: adminFlags.password,
			Role:     model.RoleAdmin,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (ID: %s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "Administrator", "admin display name")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}
