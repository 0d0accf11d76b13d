package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

var configEnv = []string{
	"PORT", "LOG_LEVEL", "DEFAULT_STRATEGY", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"CACHE_CAPACITY", "CACHE_TTL", "MAX_ATTEMPTS", "MAX_SESSION_ITEMS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.DefaultStrategy != packing.StrategyBalanced {
		t.Fatalf("unexpected default strategy: %s", cfg.DefaultStrategy)
	}
	if cfg.MaxAttemptsLimit != 10 || cfg.DefaultMaxAttempts != defaultMaxAttempts {
		t.Fatalf("unexpected attempt settings: %d/%d", cfg.DefaultMaxAttempts, cfg.MaxAttemptsLimit)
	}
	if cfg.ContainerMaxWeight != 1000 {
		t.Fatalf("unexpected container weight capacity: %v", cfg.ContainerMaxWeight)
	}
	if cfg.CacheCapacity != defaultCacheCapacity || cfg.CacheTTL != defaultCacheTTL {
		t.Fatalf("unexpected cache settings: %d/%s", cfg.CacheCapacity, cfg.CacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_STRATEGY", "maximize-space")
	t.Setenv("CACHE_CAPACITY", "0")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.DefaultStrategy != packing.StrategyMaximizeSpace {
		t.Fatalf("expected canonical strategy name, got %q", cfg.DefaultStrategy)
	}
	if cfg.CacheCapacity != 0 || cfg.CacheTTL != time.Minute {
		t.Fatalf("unexpected cache settings: %d/%s", cfg.CacheCapacity, cfg.CacheTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_CAPACITY", "lots")

	if _, err := Load(nil); err == nil || !strings.Contains(err.Error(), "CACHE_CAPACITY") {
		t.Fatalf("expected CACHE_CAPACITY error, got %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("RATE_LIMIT_BURST", "5")

	path := writeConfig(t, `
port: "7100"
enable_request_logging: false
rate_limit:
  rps: 0
cache:
  ttl: 5m
packing:
  default_strategy: Prioritize Stability
  default_max_attempts: 2
sessions:
  max_items: 20
`)

	port := "7200"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected YAML to disable rate limiting, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 5 {
		t.Fatalf("expected env burst to survive, got %d", cfg.RateLimitBurst)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled by YAML")
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache TTL: %s", cfg.CacheTTL)
	}
	if cfg.DefaultStrategy != packing.StrategyPrioritizeStability || cfg.DefaultMaxAttempts != 2 {
		t.Fatalf("unexpected packing defaults: %s/%d", cfg.DefaultStrategy, cfg.DefaultMaxAttempts)
	}
	if cfg.MaxItemsPerSession != 20 {
		t.Fatalf("unexpected session limit: %d", cfg.MaxItemsPerSession)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]string{
		"bad strategy":     "packing:\n  default_strategy: chaos\n",
		"attempts > limit": "packing:\n  default_max_attempts: 11\n",
		"bad duration":     "idle_timeout: soon\n",
		"bad level":        "log_level: loud\n",
		"negative burst":   "rate_limit:\n  burst: -1\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(&CLIOverrides{ConfigFile: writeConfig(t, body)}); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
