package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys
const EnvPrefix = "MEDCARE"

// DefaultJWTSecret is the development signing secret; production refuses it
const DefaultJWTSecret = "change-me-in-production"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	Environment string   `mapstructure:"environment"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// IsProduction reports whether stack traces must be hidden from clients
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type InventoryConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
	ExpiryWindowDays  int `mapstructure:"expiry_window_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=medcare sslmode=disable")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", time.Second)

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("inventory.low_stock_threshold", 10)
	v.SetDefault("inventory.expiry_window_days", 30)
}

// LoadConfig loads configuration from config.yaml (optional) and MEDCARE_* env vars.
// An explicit path must exist; otherwise the search paths are tried.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("./config/")
		v.AddConfigPath("/etc/medcare/")
	}

	// MEDCARE_DATABASE_DSN overrides database.dsn
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Server.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("auth.jwt_secret must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("inventory.low_stock_threshold must not be negative")
	}
	if c.Inventory.ExpiryWindowDays < 0 {
		return errors.New("inventory.expiry_window_days must not be negative")
	}
	return nil
}
