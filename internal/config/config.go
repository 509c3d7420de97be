package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional TOML file read before the environment.
const ConfigFileEnv = "LEDGER_CONFIG"

// DefaultBalanceCacheSize applies to sqlite, whose file is written by this
// process alone.
const DefaultBalanceCacheSize = 1024

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// CIDRs of reverse proxies whose forwarding headers are believed, on
	// top of loopback and private networks
	TrustedProxies []string

	// Database
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger. A zero BalanceCacheSize reads every balance from the store.
	BalanceCacheSize int
	BalanceCacheTTL  time.Duration
	DefaultPageSize  int

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("sqlite_db_path", "./data/ledger.db")
	v.SetDefault("database_url", "")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "ledger")
	v.SetDefault("amqp_queue", "ledger_events")
	v.SetDefault("balance_cache_ttl", "5m")
	v.SetDefault("default_page_size", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads defaults, then the optional TOML file named by LEDGER_CONFIG,
// then environment variables (PORT, DB_DRIVER, ...), each overriding the
// previous layer.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	driver := strings.ToLower(v.GetString("db_driver"))

	// The balance cache is process-local, so it is off by default where
	// several replicas may share the database.
	cacheSize := DefaultBalanceCacheSize
	if driver == "postgres" {
		cacheSize = 0
	}
	if v.IsSet("balance_cache_size") {
		cacheSize = v.GetInt("balance_cache_size")
	}

	return &Config{
		Port:               v.GetString("port"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		TrustedProxies:     splitList(v.GetString("trusted_proxies")),
		DBDriver:           driver,
		SQLiteDBPath:       v.GetString("sqlite_db_path"),
		DatabaseURL:        v.GetString("database_url"),
		AMQPURL:            v.GetString("amqp_url"),
		AMQPExchange:       v.GetString("amqp_exchange"),
		AMQPQueue:          v.GetString("amqp_queue"),
		BalanceCacheSize:   cacheSize,
		BalanceCacheTTL:    v.GetDuration("balance_cache_ttl"),
		DefaultPageSize:    v.GetInt("default_page_size"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          strings.ToLower(v.GetString("log_format")),
	}, nil
}

// splitList parses a comma-separated setting, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres driver")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: scheme must be 'postgres' or 'postgresql'")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid db driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BalanceCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid balance cache size %d: must be 0 (disabled) or more", c.BalanceCacheSize))
	}
	if c.BalanceCacheSize > 0 && c.BalanceCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid balance cache ttl %v: must be at least 1 second", c.BalanceCacheTTL))
	}

	if c.DefaultPageSize < 1 || c.DefaultPageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid default page size %d: must be between 1 and 100", c.DefaultPageSize))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of [text json]", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
