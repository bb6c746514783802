// Package config provides configuration management for the biomapper
// toolkit. It supports loading runtime settings from YAML files and
// environment variables, and loading mapping strategies from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultResolverTimeout = 20 * time.Second
	DefaultBatchSize       = 100
	DefaultBatchTimeout    = 30 * time.Second
	DefaultCacheTTL        = 24 * time.Hour
	DefaultOutputFormat    = OutputFormatText
	DefaultLogLevel        = "info"
	DefaultConfigDir       = ".biomapper"
	DefaultConfigFile      = "config.yaml"
)

// ResolverConfig holds historical-resolution service settings.
type ResolverConfig struct {
	// URL is the resolution endpoint. Empty disables the historical
	// resolution stage unless a strategy injects its own service.
	URL string `yaml:"url"`

	// Timeout bounds each HTTP request to the service.
	Timeout time.Duration `yaml:"timeout"`

	// BatchSize is the identifiers-per-request batch granularity.
	BatchSize int `yaml:"batch_size"`

	// BatchTimeout bounds one whole resolution batch.
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// RedisConfig holds resolution-cache settings.
type RedisConfig struct {
	// Addr is the Redis host:port. Empty disables caching.
	Addr string `yaml:"addr"`

	// Password authenticates to Redis if set.
	Password string `yaml:"password"`

	// DB selects the Redis logical database.
	DB int `yaml:"db"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `yaml:"ttl"`
}

// PostgresConfig holds provenance persistence settings.
type PostgresConfig struct {
	// DSN is the connection string. Empty keeps provenance in memory.
	DSN string `yaml:"dsn"`
}

// Config is the full biomapper runtime configuration.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Debug enables verbose diagnostics regardless of LogLevel.
	Debug bool `yaml:"debug"`

	// OutputFormat selects the CLI result rendering.
	OutputFormat OutputFormat `yaml:"output_format"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Timeout:      DefaultResolverTimeout,
			BatchSize:    DefaultBatchSize,
			BatchTimeout: DefaultBatchTimeout,
		},
		Redis: RedisConfig{
			TTL: DefaultCacheTTL,
		},
		LogLevel:     DefaultLogLevel,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the biomapper configuration directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv("BIOMAPPER_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the path of the main configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads configuration from defaults, then the config file if
// present, then environment variables. Later sources win.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadFromFile(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("BIOMAPPER_RESOLVER_URL"); v != "" {
		cfg.Resolver.URL = v
	}
	if v := os.Getenv("BIOMAPPER_RESOLVER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resolver.Timeout = d
		}
	}
	if v := os.Getenv("BIOMAPPER_RESOLVER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Resolver.BatchSize = n
		}
	}
	if v := os.Getenv("BIOMAPPER_RESOLVER_BATCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resolver.BatchTimeout = d
		}
	}
	if v := os.Getenv("BIOMAPPER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BIOMAPPER_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BIOMAPPER_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("BIOMAPPER_REDIS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Redis.TTL = d
		}
	}
	if v := os.Getenv("BIOMAPPER_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("BIOMAPPER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("BIOMAPPER_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("BIOMAPPER_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(strings.ToLower(v))
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output format %q (valid: text, json, yaml)", c.OutputFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	if c.Resolver.BatchSize <= 0 {
		return fmt.Errorf("resolver batch size must be positive, got %d", c.Resolver.BatchSize)
	}
	return nil
}

// IsValid reports whether the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	}
	return false
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}
