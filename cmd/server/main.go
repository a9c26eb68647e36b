package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/burnvault/internal/application"
	"github.com/eugenenazirov/burnvault/internal/config"
	"github.com/eugenenazirov/burnvault/internal/logging"
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

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), app, cfg.ShutdownGracePeriod, logger)
}

// parseFlags maps command-line flags onto config overrides. Flags left at
// their defaults produce nil overrides so lower precedence sources win.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	app := kingpin.New("burnvault", "Burn group planner - fits pending media items onto fixed-capacity discs")
	configFile := app.Flag("config", "Path to YAML or TOML configuration file").String()
	port := app.Flag("port", "HTTP port exposed by the service").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	capacityGB := app.Flag("capacity", "Default disc capacity in GB for every category").Default("-1").Float64()
	capacities := app.Flag("capacities", "Comma-separated category=GB capacities").String()
	scale := app.Flag("scale", "Quantization units per GB").Default("0").Int()
	catalogDriver := app.Flag("catalog-driver", "Catalog backend (memory, sqlite)").String()
	catalogPath := app.Flag("catalog-path", "SQLite catalog file path").String()
	seedSample := app.Flag("seed-sample", "Seed the sample library into an empty catalog").Bool()
	rateLimitRPS := app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

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
	if *capacityGB >= 0 {
		overrides.CapacityGB = capacityGB
	}
	if *capacities != "" {
		overrides.CapacitiesStr = capacities
	}
	if *scale > 0 {
		overrides.Scale = scale
	}
	if *catalogDriver != "" {
		overrides.CatalogDriver = catalogDriver
	}
	if *catalogPath != "" {
		overrides.CatalogPath = catalogPath
	}
	if *seedSample {
		overrides.SeedSample = seedSample
	}
	if *rateLimitRPS >= 0 {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		overrides.RateLimitBurst = rateLimitBurst
	}
	return overrides, nil
}

func shutdown(server *http.Server, resources io.Closer, timeout time.Duration, logger *zap.Logger) {
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

	if resources != nil {
		if err := resources.Close(); err != nil {
			logger.Error("failed to release resources", zap.Error(err))
		}
	}
}
