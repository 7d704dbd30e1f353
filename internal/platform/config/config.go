package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Review store drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const maxCacheTTL = 5 * time.Minute

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ReviewStoreDriver string `env:"REVIEW_STORE_DRIVER" default:"postgres"`
	DatabaseURL       string `env:"DATABASE_URL"`
	MySQLDSN          string `env:"MYSQL_DSN"`
	RunMigrations     bool   `env:"RUN_MIGRATIONS" default:"true"`
	RedisURL          string `env:"REDIS_URL"`

	WindowDays            int     `env:"ANALYTICS_WINDOW_DAYS" default:"30"`
	RiskThresholdPercent  float64 `env:"ANALYTICS_RISK_THRESHOLD_PERCENT" default:"40"`
	NegativeMeanThreshold float64 `env:"ANALYTICS_NEGATIVE_MEAN_THRESHOLD" default:"2.0"`
	TrendPeriodDays       int     `env:"ANALYTICS_TREND_PERIOD_DAYS" default:"30"`

	CacheTTL              time.Duration `env:"ANALYTICS_CACHE_TTL" default:"45s"`
	CacheEvictionInterval time.Duration `env:"ANALYTICS_CACHE_EVICTION_INTERVAL" default:"1m"`

	StoreQueryTimeout    time.Duration `env:"STORE_QUERY_TIMEOUT" default:"5s"`
	StoreBreakerFailures int           `env:"STORE_BREAKER_FAILURES" default:"5"`
	StoreBreakerDelay    time.Duration `env:"STORE_BREAKER_DELAY" default:"30s"`

	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"20"`
	APIRateBurst int     `env:"API_RATE_BURST" default:"40"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SharedCacheEnabled reports whether a Redis URL was configured.
func (c *Config) SharedCacheEnabled() bool {
	return c.RedisURL != ""
}

func validate(cfg *Config) error {
	switch cfg.ReviewStoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		if cfg.AppEnv == "production" {
			if err := requireSecureSSL(cfg.DatabaseURL); err != nil {
				return err
			}
		}
	case DriverMySQL:
		if cfg.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required")
		}
	default:
		return fmt.Errorf("REVIEW_STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMySQL, cfg.ReviewStoreDriver)
	}

	if cfg.WindowDays <= 0 || cfg.WindowDays > domain.MaxWindowDays {
		return fmt.Errorf("ANALYTICS_WINDOW_DAYS must be in [1, %d], got %d", domain.MaxWindowDays, cfg.WindowDays)
	}
	if cfg.TrendPeriodDays <= 0 || cfg.TrendPeriodDays > domain.MaxWindowDays {
		return fmt.Errorf("ANALYTICS_TREND_PERIOD_DAYS must be in [1, %d], got %d", domain.MaxWindowDays, cfg.TrendPeriodDays)
	}
	if cfg.RiskThresholdPercent < 0 || cfg.RiskThresholdPercent > 100 {
		return fmt.Errorf("ANALYTICS_RISK_THRESHOLD_PERCENT must be between 0 and 100, got %g", cfg.RiskThresholdPercent)
	}
	if cfg.NegativeMeanThreshold < 1 || cfg.NegativeMeanThreshold > 5 {
		return fmt.Errorf("ANALYTICS_NEGATIVE_MEAN_THRESHOLD must be between 1 and 5, got %g", cfg.NegativeMeanThreshold)
	}

	if cfg.CacheTTL <= 0 || cfg.CacheTTL > maxCacheTTL {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must be in (0, %s], got %s", maxCacheTTL, cfg.CacheTTL)
	}
	if cfg.CacheEvictionInterval <= 0 {
		return fmt.Errorf("ANALYTICS_CACHE_EVICTION_INTERVAL must be positive, got %s", cfg.CacheEvictionInterval)
	}

	if cfg.StoreQueryTimeout < 0 {
		return fmt.Errorf("STORE_QUERY_TIMEOUT must not be negative, got %s", cfg.StoreQueryTimeout)
	}
	if cfg.StoreBreakerFailures <= 0 {
		return fmt.Errorf("STORE_BREAKER_FAILURES must be positive, got %d", cfg.StoreBreakerFailures)
	}
	if cfg.StoreBreakerDelay <= 0 {
		return fmt.Errorf("STORE_BREAKER_DELAY must be positive, got %s", cfg.StoreBreakerDelay)
	}

	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return errors.New("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	return nil
}

func requireSecureSSL(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "disable" || mode == "allow" {
		return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
	}
	return nil
}
