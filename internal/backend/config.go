package backend

import (
	"fmt"
	"time"

	"conti/internal/config"
	"conti/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Store: storage.Options{
			Driver:      storage.Dialect(appConfig.DBDriver),
			SQLitePath:  appConfig.SQLiteDBPath,
			DatabaseURL: appConfig.DatabaseURL,
		},
		AMQPURL:              appConfig.AMQPURL,
		AMQPExchange:         appConfig.AMQPExchange,
		AMQPQueue:            appConfig.AMQPQueue,
		BalanceCacheSize:     appConfig.BalanceCacheSize,
		BalanceCacheTTL:      appConfig.BalanceCacheTTL,
		CacheCleanupInterval: appConfig.BalanceCacheTTL,
		DefaultPageSize:      appConfig.DefaultPageSize,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Store.Driver {
	case storage.SQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite driver")
		}
	case storage.Postgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("database url is required for postgres driver")
		}
	default:
		return fmt.Errorf("invalid db driver: %s", c.Store.Driver)
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP is enabled")
	}
	if c.BalanceCacheSize < 0 {
		return fmt.Errorf("balance cache size must not be negative")
	}
	if c.BalanceCacheSize > 0 && c.BalanceCacheTTL <= 0 {
		return fmt.Errorf("balance cache ttl must be positive")
	}
	return nil
}

func (c Config) cleanupInterval() time.Duration {
	if c.CacheCleanupInterval > 0 {
		return c.CacheCleanupInterval
	}
	if c.BalanceCacheTTL > 0 {
		return c.BalanceCacheTTL
	}
	return time.Minute
}
