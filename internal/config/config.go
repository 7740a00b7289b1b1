// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Market   MarketConfig   `mapstructure:"market"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and configures the ledger backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
}

// Session store backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// SessionConfig holds conversation session storage configuration.
type SessionConfig struct {
	Backend  string        `mapstructure:"backend"`
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
	Redis    RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// OracleConfig holds the question oracle configuration.
type OracleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MarketConfig holds market pricing configuration.
type MarketConfig struct {
	// Fluctuation is the half-width of the refresh multiplier range.
	Fluctuation float64 `mapstructure:"fluctuation"`
	SellRatio   float64 `mapstructure:"sell_ratio"`
	// PriceBand clamps prices around the reference price. 0 disables it.
	PriceBand float64 `mapstructure:"price_band"`
}

// EconomyConfig holds account and bank settings.
type EconomyConfig struct {
	ResetCascadesPurchases bool `mapstructure:"reset_cascades_purchases"`
	SavingsRateDisplay     int  `mapstructure:"savings_rate_display"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first, if present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_DRIVER, ORACLE_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The groq key name used by existing deployments.
	_ = v.BindEnv("oracle.api_key", "ORACLE_API_KEY", "GROQ_API_KEY")

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "finquest")
	v.SetDefault("database.name", "finquest")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.sqlite_path", "finquest.db")

	// Session defaults
	v.SetDefault("session.backend", SessionMemory)
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.capacity", 10000)
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key_prefix", "finquest:session")

	// Oracle defaults
	v.SetDefault("oracle.enabled", true)
	v.SetDefault("oracle.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("oracle.model", "llama-3.1-8b-instant")
	v.SetDefault("oracle.timeout", "8s")

	// Market defaults
	v.SetDefault("market.fluctuation", 0.1)
	v.SetDefault("market.sell_ratio", 0.8)
	v.SetDefault("market.price_band", 0)

	// Economy defaults
	v.SetDefault("economy.reset_cascades_purchases", true)
	v.SetDefault("economy.savings_rate_display", 5)
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	if c.Market.Fluctuation < 0 || c.Market.Fluctuation >= 1 {
		return fmt.Errorf("market.fluctuation must be in [0, 1), got %v", c.Market.Fluctuation)
	}
	if c.Market.SellRatio <= 0 || c.Market.SellRatio > 1 {
		return fmt.Errorf("market.sell_ratio must be in (0, 1], got %v", c.Market.SellRatio)
	}
	if c.Market.PriceBand < 0 {
		return fmt.Errorf("market.price_band must not be negative, got %v", c.Market.PriceBand)
	}
	return nil
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
