package infrastructure

import (
	"fmt"
	"log"
	"os"
	"strings"

	"medcare-admin/internal/config"
	"medcare-admin/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the configured database using GORM
func ConnectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             cfg.SlowThreshold,
				LogLevel:                  parseLogLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// a single connection keeps in-memory databases alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// MigrateAllSchemas performs all database migrations in the correct order
func MigrateAllSchemas(db *gorm.DB) error {
	// 1. Accounts
	if err := db.AutoMigrate(&model.User{}, &model.Supplier{}, &model.SupplierProduct{}); err != nil {
		return fmt.Errorf("failed to migrate account tables: %w", err)
	}

	// 2. Catalog and sales
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		return fmt.Errorf("failed to migrate Product table: %w", err)
	}

	if err := db.AutoMigrate(&model.Order{}, &model.OrderItem{}); err != nil {
		return fmt.Errorf("failed to migrate Order tables: %w", err)
	}

	if err := db.AutoMigrate(&model.Payment{}); err != nil {
		return fmt.Errorf("failed to migrate Payment table: %w", err)
	}

	// 3. Authorization and audit
	if err := db.AutoMigrate(&model.AccessRule{}, &model.AuditEntryDB{}); err != nil {
		return fmt.Errorf("failed to migrate access rule and audit tables: %w", err)
	}

	// 4. Indexes for the admin queries
	if err := createAdditionalIndexes(db); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	return nil
}

// createAdditionalIndexes creates composite indexes used by the inventory and order listings
func createAdditionalIndexes(db *gorm.DB) error {
	m := db.Migrator()

	indexes := []struct {
		model interface{}
		name  string
		sql   string
	}{
		{&model.Product{}, "idx_products_visible_category", "CREATE INDEX idx_products_visible_category ON products(visible, category)"},
		{&model.Product{}, "idx_products_quantity", "CREATE INDEX idx_products_quantity ON products(quantity)"},
		{&model.Order{}, "idx_orders_user_status", "CREATE INDEX idx_orders_user_status ON orders(user_id, status)"},
		{&model.Payment{}, "idx_payments_order_status", "CREATE INDEX idx_payments_order_status ON payments(order_id, status)"},
	}

	for _, idx := range indexes {
		if m.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
