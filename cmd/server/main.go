package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/application"
	"github.com/eugenenazirov/box-packer/internal/config"
	"github.com/eugenenazirov/box-packer/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("default_strategy", string(cfg.DefaultStrategy)),
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
	)

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// parseFlags turns command-line arguments into configuration overrides.
// Numeric flags default to -1 so an explicit 0 can still disable a feature.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	app := kingpin.New("box-packer", "Box Packer - packs items into a container with stability-aware strategies")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	port := app.Flag("port", "HTTP port exposed by the service").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	strategy := app.Flag("default-strategy", "Strategy used when a request names none").String()
	rateLimitRPS := app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	cacheCapacity := app.Flag("cache-capacity", "Packing result cache entries (set 0 to disable)").Default("-1").Int()

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *port != "" {
		overrides.Port = port
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *strategy != "" {
		overrides.DefaultStrategy = strategy
	}
	if *rateLimitRPS >= 0 {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		overrides.RateLimitBurst = rateLimitBurst
	}
	if *cacheCapacity >= 0 {
		overrides.CacheCapacity = cacheCapacity
	}
	return overrides, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
