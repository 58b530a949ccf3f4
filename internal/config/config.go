package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/ingest"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/lens/lens.db"

// DefaultPort is the API port used when neither server.port nor PORT is set.
const DefaultPort = "8080"

// Config is the resolved application configuration.
type Config struct {
	CSV          ingest.ColumnMapping
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Redis        RedisConfig
	Server       ServerConfig
	CLV          analytics.CLVParams
	Weights      analytics.Weights
	BatchSize    int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

// RedisConfig configures the report cache. An empty URL disables caching.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	clv := analytics.DefaultCLVParams(time.Time{})

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("rfm.weights.r", 1.0)
	v.SetDefault("rfm.weights.f", 1.0)
	v.SetDefault("rfm.weights.m", 1.0)
	v.SetDefault("clv.churn_rate", clv.ChurnRate)
	v.SetDefault("clv.discount_rate", clv.DiscountRate)
	v.SetDefault("clv.prediction_months", clv.PredictionMonths)
	v.SetDefault("clv.gross_margin", clv.GrossMargin)
	v.SetDefault("clv.include_acquisition_cost", false)
	v.SetDefault("clv.acquisition_cost", 0.0)
	v.SetDefault("import.batch_size", 500)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", "10m")
}

// Load resolves the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves the configuration from v. It follows this precedence:
// 1. Viper configuration (config file or LENS_ env vars)
// 2. Conventional environment variables (PORT, REDIS_URL)
// 3. Default values
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		BatchSize:    v.GetInt("import.batch_size"),
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			AllowOrigins: v.GetStringSlice("server.allow_origins"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redis.url"),
			TTL: v.GetDuration("redis.ttl"),
		},
	}

	if err := v.UnmarshalKey("rfm.weights", &cfg.Weights); err != nil {
		return nil, fmt.Errorf("failed to read rfm weights: %w", err)
	}
	if err := v.UnmarshalKey("clv", &cfg.CLV); err != nil {
		return nil, fmt.Errorf("failed to read clv parameters: %w", err)
	}
	if err := v.UnmarshalKey("import.csv", &cfg.CSV); err != nil {
		return nil, fmt.Errorf("failed to read csv mapping: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = os.Getenv("PORT")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = os.Getenv("REDIS_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that do not depend on the evaluation instant.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return common.InvalidConfigf("database.path is required")
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return common.InvalidConfigf("%v", err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return common.InvalidConfigf("invalid log format: %s", c.LogFormat)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return common.InvalidConfigf("import.batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return common.InvalidConfigf("redis.ttl must be positive, got %s", c.Redis.TTL)
	}

	clv := c.CLV
	clv.EvaluatedAt = time.Unix(0, 0)
	return clv.Validate()
}

// CLVAt returns the configured projection parameters evaluated at t.
func (c *Config) CLVAt(t time.Time) analytics.CLVParams {
	p := c.CLV
	p.EvaluatedAt = t
	return p
}
