package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tair/storefront/internal/querycache"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/pkg/circuitbreaker"
	"github.com/tair/storefront/pkg/database"
	"github.com/tair/storefront/pkg/tracing"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Storage   storage.Config
	Redis     RedisConfig
	Database  database.Config
	Cache     querycache.Config
	Breaker   circuitbreaker.Settings
	Log       LogConfig
	Telemetry tracing.Config
	Kafka     KafkaConfig
	Sandbox   SandboxConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string // prefix of every durable key
	Env  string
}

// IsDevelopment reports whether pretty console logging is wanted
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// APIConfig points the client at a backend
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string // debug, info, warn, error, disabled
}

// KafkaConfig holds broker settings. No brokers disables events.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// Enabled reports whether brokers are configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// SandboxConfig holds the local backend settings
type SandboxConfig struct {
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	PageSize    int
	CORSOrigins []string
	Seed        bool
	// RateLimit is requests per minute per client address, 0 disables it
	RateLimit int
	// RateLimitRedis shares the limit window through Redis
	RateLimitRedis bool
}

// Load loads configuration from an optional storefront.{toml,yaml} file
// and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_API_BASE_URL)
// 2. the config file (path, or storefront.* in . and ~/.storefront)
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".storefront"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Storage: storage.Config{
			Backend:  v.GetString("storage.backend"),
			FilePath: v.GetString("storage.file_path"),
			Prefix:   v.GetString("storage.prefix"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: database.Config{
			Driver:   v.GetString("database.driver"),
			Path:     v.GetString("database.path"),
			Host:     v.GetString("database.host"),
			Port:     v.GetString("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Cache: querycache.Config{
			Enabled:    v.GetBool("cache.enabled"),
			Backend:    v.GetString("cache.backend"),
			DefaultTTL: v.GetDuration("cache.ttl"),
		},
		Breaker: circuitbreaker.Settings{
			MaxFailures:       v.GetInt("breaker.max_failures"),
			OpenTimeout:       v.GetDuration("breaker.open_timeout"),
			HalfOpenSuccesses: v.GetInt("breaker.half_open_successes"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Telemetry: tracing.Config{
			Enabled:        v.GetBool("telemetry.enabled"),
			ServiceName:    v.GetString("telemetry.service_name"),
			ServiceVersion: v.GetString("telemetry.service_version"),
			JaegerEndpoint: v.GetString("telemetry.jaeger_endpoint"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetStringSlice("kafka.brokers")),
			GroupID: v.GetString("kafka.group_id"),
		},
		Sandbox: SandboxConfig{
			Port:        v.GetString("sandbox.port"),
			JWTSecret:   v.GetString("sandbox.jwt_secret"),
			TokenTTL:    v.GetDuration("sandbox.token_ttl"),
			PageSize:    v.GetInt("sandbox.page_size"),
			CORSOrigins: splitList(v.GetStringSlice("sandbox.cors_origins")),
			Seed:        v.GetBool("sandbox.seed"),

			RateLimit:      v.GetInt("sandbox.rate_limit"),
			RateLimitRedis: v.GetBool("sandbox.rate_limit_redis"),
		},
	}

	// cache.enabled defaults to true, which GetBool cannot tell from unset
	if !v.IsSet("cache.enabled") {
		cfg.Cache.Enabled = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both list values and a comma-separated env string
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "STOREFRONT"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "production"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 5 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = storage.BackendFile
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = storage.DefaultFilePath()
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "storefront:"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = querycache.DefaultConfig().DefaultTTL
	}
	defaults := circuitbreaker.DefaultSettings()
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = defaults.MaxFailures
	}
	if cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.Breaker.HalfOpenSuccesses == 0 {
		cfg.Breaker.HalfOpenSuccesses = defaults.HalfOpenSuccesses
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storefront"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "storefront-cli"
	}
	if cfg.Sandbox.Port == "" {
		cfg.Sandbox.Port = "8080"
	}
	if cfg.Sandbox.JWTSecret == "" {
		cfg.Sandbox.JWTSecret = "storefront-sandbox-secret"
	}
	if cfg.Sandbox.TokenTTL == 0 {
		cfg.Sandbox.TokenTTL = 24 * time.Hour
	}
	if cfg.Sandbox.PageSize == 0 {
		cfg.Sandbox.PageSize = 10
	}
	if len(cfg.Sandbox.CORSOrigins) == 0 {
		cfg.Sandbox.CORSOrigins = []string{"*"}
	}
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative")
	}
	if c.Sandbox.PageSize < 1 {
		return fmt.Errorf("sandbox page size must be positive")
	}
	return nil
}
