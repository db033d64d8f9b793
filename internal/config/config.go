package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/symbiose/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the interaction store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Pool returns the pgx pool tuning for the store.
func (s StoreConfig) Pool() db.PoolConfig {
	return db.PoolConfig{MaxConns: s.MaxConns, MinConns: s.MinConns}
}

// DirectoryConfig configures where company records are read from.
type DirectoryConfig struct {
	Source           string   `yaml:"source" mapstructure:"source"`
	FixturePath      string   `yaml:"fixture_path" mapstructure:"fixture_path"`
	EligibleStatuses []string `yaml:"eligible_statuses" mapstructure:"eligible_statuses"`
}

// CacheConfig configures the candidate list cache.
type CacheConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	TTLSecs    int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// RedisConfig holds Redis connection settings for the shared cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// MatchingConfig configures scoring thresholds and query bounds.
type MatchingConfig struct {
	MinScore      int     `yaml:"min_score" mapstructure:"min_score"`
	FreshnessDays int     `yaml:"freshness_days" mapstructure:"freshness_days"`
	DefaultLimit  int     `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit      int     `yaml:"max_limit" mapstructure:"max_limit"`
	MaxDistanceKM float64 `yaml:"max_distance_km" mapstructure:"max_distance_km"`
}

// FreshnessWindow returns how long a new interaction counts as fresh.
func (m MatchingConfig) FreshnessWindow() time.Duration {
	return time.Duration(m.FreshnessDays) * 24 * time.Hour
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RetryConfig configures retries of transient store reads.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SYMBIOSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("directory.source", "postgres")
	v.SetDefault("directory.eligible_statuses", []string{"validated", "approved", "active"})
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_secs", 60)
	v.SetDefault("cache.max_entries", 200)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("matching.min_score", 30)
	v.SetDefault("matching.freshness_days", 7)
	v.SetDefault("matching.default_limit", 25)
	v.SetDefault("matching.max_limit", 100)
	v.SetDefault("matching.max_distance_km", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 10)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of
// "serve", "suggest" or "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve", "suggest":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateDirectory()...)
		errs = append(errs, c.validateCache()...)
		errs = append(errs, c.validateMatching()...)
		if c.Retry.MaxAttempts < 1 {
			errs = append(errs, "retry.max_attempts must be >= 1")
		}
		if c.Retry.InitialBackoffMs < 0 {
			errs = append(errs, "retry.initial_backoff_ms must be >= 0")
		}
		if mode == "serve" {
			errs = append(errs, c.validateServer()...)
		}
	case "migrate":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be one of postgres, sqlite, memory", c.Store.Driver))
	}
	return errs
}

func (c *Config) validateDirectory() []string {
	var errs []string
	switch c.Directory.Source {
	case "postgres":
		if c.Store.Driver != "postgres" {
			errs = append(errs, "directory.source postgres requires store.driver postgres")
		}
	case "fixture":
		if c.Directory.FixturePath == "" {
			errs = append(errs, "directory.fixture_path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("directory.source %q must be one of postgres, fixture", c.Directory.Source))
	}
	if slices.Contains(c.Directory.EligibleStatuses, "") {
		errs = append(errs, "directory.eligible_statuses must not contain empty values")
	}
	return errs
}

func (c *Config) validateCache() []string {
	var errs []string
	switch c.Cache.Driver {
	case "memory":
		if c.Cache.MaxEntries < 1 {
			errs = append(errs, "cache.max_entries must be >= 1")
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required")
		}
	case "none":
		return nil
	default:
		return []string{fmt.Sprintf("cache.driver %q must be one of memory, redis, none", c.Cache.Driver)}
	}
	if c.Cache.TTLSecs < 1 {
		errs = append(errs, "cache.ttl_secs must be >= 1")
	}
	return errs
}

func (c *Config) validateMatching() []string {
	var errs []string
	m := c.Matching
	if m.MinScore < 0 || m.MinScore > 100 {
		errs = append(errs, "matching.min_score must be between 0 and 100")
	}
	if m.FreshnessDays < 0 {
		errs = append(errs, "matching.freshness_days must be >= 0")
	}
	if m.DefaultLimit < 1 || m.MaxLimit < 1 {
		errs = append(errs, "matching.default_limit and matching.max_limit must be > 0")
	} else if m.DefaultLimit > m.MaxLimit {
		errs = append(errs, "matching.default_limit must not exceed matching.max_limit")
	}
	if m.MaxDistanceKM <= 0 {
		errs = append(errs, "matching.max_distance_km must be > 0")
	}
	return errs
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		errs = append(errs, "server.rate_limit_rps and server.rate_limit_burst must be > 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
