package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendSQLite   = "sqlite"
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	Catalog      CatalogConfig
	ExchangeRate ExchangeRateConfig
	Checkout     CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPSTUDY_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHOPSTUDY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPSTUDY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSTUDY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects and tunes the device key-value backend holding the
// persisted user records.
type StorageConfig struct {
	Backend string `envconfig:"SHOPSTUDY_STORAGE_BACKEND" default:"sqlite"`

	SQLitePath string `envconfig:"SHOPSTUDY_SQLITE_PATH" default:"shopstudy.db"`
	PostgresDSN string `envconfig:"SHOPSTUDY_POSTGRES_DSN"`

	RedisURL          string        `envconfig:"SHOPSTUDY_REDIS_URL"`
	RedisAddress      string        `envconfig:"SHOPSTUDY_REDIS_ADDR"`
	RedisPassword     string        `envconfig:"SHOPSTUDY_REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"SHOPSTUDY_REDIS_DB" default:"0"`
	RedisPoolSize     int           `envconfig:"SHOPSTUDY_REDIS_POOL_SIZE" default:"10"`
	RedisDialTimeout  time.Duration `envconfig:"SHOPSTUDY_REDIS_DIAL_TIMEOUT" default:"5s"`
	RedisReadTimeout  time.Duration `envconfig:"SHOPSTUDY_REDIS_READ_TIMEOUT" default:"5s"`
	RedisWriteTimeout time.Duration `envconfig:"SHOPSTUDY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(s.Backend) {
	case StorageBackendSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("SHOPSTUDY_SQLITE_PATH is required for the sqlite backend")
		}
	case StorageBackendPostgres:
		if s.PostgresDSN == "" {
			return fmt.Errorf("SHOPSTUDY_POSTGRES_DSN is required for the postgres backend")
		}
	case StorageBackendRedis:
		if s.RedisURL == "" && s.RedisAddress == "" {
			return fmt.Errorf("SHOPSTUDY_REDIS_URL or SHOPSTUDY_REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

// CatalogConfig points at the demo product API that also hosts the order
// placement, login and user directory endpoints.
type CatalogConfig struct {
	BaseURL string        `envconfig:"SHOPSTUDY_CATALOG_BASE_URL" default:"https://fakestoreapi.com"`
	Timeout time.Duration `envconfig:"SHOPSTUDY_CATALOG_TIMEOUT" default:"10s"`
}

type ExchangeRateConfig struct {
	BaseURL  string        `envconfig:"SHOPSTUDY_EXCHANGE_RATE_BASE_URL" default:"https://v6.exchangerate-api.com/v6"`
	APIKey   string        `envconfig:"SHOPSTUDY_EXCHANGE_RATE_API_KEY"`
	Timeout  time.Duration `envconfig:"SHOPSTUDY_EXCHANGE_RATE_TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"SHOPSTUDY_EXCHANGE_RATE_CACHE_TTL" default:"1h"`
}

type CheckoutConfig struct {
	// ProcessingDelay simulates the payment provider round trip.
	ProcessingDelay time.Duration `envconfig:"SHOPSTUDY_CHECKOUT_PROCESSING_DELAY" default:"2s"`
}
