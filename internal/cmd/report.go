package cmd

import (
	"fmt"
	"os"
	"strings"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/model"
	"medcare-admin/internal/report"
	"medcare-admin/internal/service"

	"github.com/spf13/cobra"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:       "report [" + strings.Join(report.Kinds, "|") + "]",
	Short:     "Write a PDF report to a file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: report.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		generator := report.NewGenerator("MedCare Pharmacy")
		path := reportOutput
		if path == "" {
			path = generator.Filename(kind)
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()

		ctx := cmd.Context()
		audit := service.NewDatabaseAuditLog(db)
		switch kind {
		case report.KindInventory:
			products, err := service.NewProductService(db, audit).ListAll(ctx)
			if err != nil {
				return err
			}
			if err := generator.Inventory(f, products, cfg.Inventory.LowStockThreshold); err != nil {
				return err
			}
		case report.KindOrders:
			// the command line runs with administrator rights
			system := &model.Principal{ID: "system", Name: "command line", Role: model.RoleAdmin}
			authz, err := service.NewAuthorizationService(service.DefaultAccessRules())
			if err != nil {
				return err
			}
			orders, err := service.NewOrderService(db, authz, audit).ListOrders(ctx, system, service.OrderFilters{})
			if err != nil {
				return err
			}
			if err := generator.Orders(f, orders); err != nil {
				return err
			}
		case report.KindSuppliers:
			authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
			suppliers, err := service.NewSupplierService(db, authService, audit).ListSuppliers(ctx, "")
			if err != nil {
				return err
			}
			if err := generator.Suppliers(f, suppliers); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report to %s\n", kind, path)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default <kind>-report-<date>.pdf)")
	rootCmd.AddCommand(reportCmd)
}
