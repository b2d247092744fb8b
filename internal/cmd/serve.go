package cmd

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"medcare-admin/internal/infrastructure"
	"medcare-admin/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveMigrate bool
	serveSeed    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "migrate database schemas before starting")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "load sample data before starting")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Loading configuration...")
	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)
	log.Printf("Connected to %s database", cfg.Database.Driver)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if serveMigrate {
		if err := infrastructure.MigrateAllSchemas(db); err != nil {
			return fmt.Errorf("failed to migrate database schemas: %w", err)
		}
	}

	services, err := server.NewServices(ctx, cfg, db)
	if err != nil {
		return err
	}

	if serveSeed {
		if err := seedSampleData(ctx, db, services); err != nil {
			return err
		}
		if err := services.Authz.Reload(ctx); err != nil {
			return fmt.Errorf("failed to reload access rules: %w", err)
		}
	}

	srv, err := server.NewServer(cfg, db, services)
	if err != nil {
		return err
	}

	log.Printf("Starting MedCare Admin API on %s (%s)", cfg.Server.Addr, cfg.Server.Environment)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
