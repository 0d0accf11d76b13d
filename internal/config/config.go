package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

const (
	defaultPort               = "8080"
	defaultRateLimitRPS       = 25.0
	defaultRateLimitBurst     = 50
	defaultLogLevel           = "info"
	defaultCacheCapacity      = 256
	defaultCacheTTL           = 30 * time.Minute
	defaultMaxAttempts        = 5
	defaultMaxAttemptsLimit   = 10
	defaultMaxItemsPerSession = 200
	defaultMaxSessions        = 1000
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string

	// CacheCapacity bounds the packing result cache; 0 disables it.
	CacheCapacity int
	// CacheTTL expires cached results; 0 keeps them until evicted.
	CacheTTL time.Duration

	DefaultStrategy    packing.Strategy
	DefaultMaxAttempts int
	MaxAttemptsLimit   int
	ContainerMaxWeight float64
	MaxItemsPerSession int
	MaxSessions        int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Cache                yamlCache     `yaml:"cache"`
	Packing              yamlPacking   `yaml:"packing"`
	Sessions             yamlSessions  `yaml:"sessions"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlCache struct {
	Capacity *int   `yaml:"capacity"`
	TTL      string `yaml:"ttl"`
}

type yamlPacking struct {
	DefaultStrategy    string  `yaml:"default_strategy"`
	DefaultMaxAttempts int     `yaml:"default_max_attempts"`
	MaxAttemptsLimit   int     `yaml:"max_attempts_limit"`
	ContainerMaxWeight float64 `yaml:"container_max_weight"`
}

type yamlSessions struct {
	MaxItems    int `yaml:"max_items"`
	MaxSessions int `yaml:"max_sessions"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	LogLevel        *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
	CacheCapacity   *int
	DefaultStrategy *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		CacheCapacity:        defaultCacheCapacity,
		CacheTTL:             defaultCacheTTL,
		DefaultStrategy:      packing.StrategyBalanced,
		DefaultMaxAttempts:   defaultMaxAttempts,
		MaxAttemptsLimit:     defaultMaxAttemptsLimit,
		ContainerMaxWeight:   packing.DefaultMaxWeight,
		MaxItemsPerSession:   defaultMaxItemsPerSession,
		MaxSessions:          defaultMaxSessions,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{yamlCfg.Cache.TTL, &cfg.CacheTTL},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.Cache.Capacity != nil {
		cfg.CacheCapacity = *yamlCfg.Cache.Capacity
	}

	if yamlCfg.Packing.DefaultStrategy != "" {
		cfg.DefaultStrategy = packing.Strategy(yamlCfg.Packing.DefaultStrategy)
	}
	if yamlCfg.Packing.DefaultMaxAttempts != 0 {
		cfg.DefaultMaxAttempts = yamlCfg.Packing.DefaultMaxAttempts
	}
	if yamlCfg.Packing.MaxAttemptsLimit != 0 {
		cfg.MaxAttemptsLimit = yamlCfg.Packing.MaxAttemptsLimit
	}
	if yamlCfg.Packing.ContainerMaxWeight != 0 {
		cfg.ContainerMaxWeight = yamlCfg.Packing.ContainerMaxWeight
	}
	if yamlCfg.Sessions.MaxItems != 0 {
		cfg.MaxItemsPerSession = yamlCfg.Sessions.MaxItems
	}
	if yamlCfg.Sessions.MaxSessions != 0 {
		cfg.MaxSessions = yamlCfg.Sessions.MaxSessions
	}
	return nil
}

// applyEnvConfig applies environment variable configuration. Malformed
// numeric values are reported rather than silently ignored.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}
	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if strategy := env("DEFAULT_STRATEGY"); strategy != "" {
		cfg.DefaultStrategy = packing.Strategy(strategy)
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"RATE_LIMIT_BURST", &cfg.RateLimitBurst},
		{"CACHE_CAPACITY", &cfg.CacheCapacity},
		{"MAX_ATTEMPTS", &cfg.DefaultMaxAttempts},
		{"MAX_SESSION_ITEMS", &cfg.MaxItemsPerSession},
	} {
		raw := env(v.name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = value
	}

	if ttl := env("CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = d
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.CacheCapacity != nil && *overrides.CacheCapacity >= 0 {
		cfg.CacheCapacity = *overrides.CacheCapacity
	}
	if overrides.DefaultStrategy != nil && *overrides.DefaultStrategy != "" {
		cfg.DefaultStrategy = packing.Strategy(*overrides.DefaultStrategy)
	}
}

// validateConfig validates the final configuration and canonicalizes the
// default strategy name.
func validateConfig(cfg *Config) error {
	if cfg.RateLimitRPS < 0 {
		return errors.New("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return errors.New("RATE_LIMIT_BURST must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.CacheCapacity < 0 {
		return errors.New("cache capacity must be >= 0")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("cache TTL must be >= 0")
	}

	strategy, err := packing.ParseStrategy(string(cfg.DefaultStrategy))
	if err != nil {
		return fmt.Errorf("default strategy %q: %w", cfg.DefaultStrategy, err)
	}
	cfg.DefaultStrategy = strategy

	if cfg.MaxAttemptsLimit < 1 {
		return errors.New("max attempts limit must be >= 1")
	}
	if cfg.DefaultMaxAttempts < 1 || cfg.DefaultMaxAttempts > cfg.MaxAttemptsLimit {
		return fmt.Errorf("default max attempts must be between 1 and %d", cfg.MaxAttemptsLimit)
	}
	if cfg.ContainerMaxWeight <= 0 {
		return errors.New("container max weight must be positive")
	}
	if cfg.MaxItemsPerSession < 1 {
		return errors.New("max items per session must be >= 1")
	}
	if cfg.MaxSessions < 1 {
		return errors.New("max sessions must be >= 1")
	}
	return nil
}
