package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxItems       = 10_000
	defaultMaxUnits       = 1_000_000
	defaultMaxTableCells  = 200_000_000

	// DriverMemory keeps the catalog in process memory.
	DriverMemory = "memory"
	// DriverSQLite persists the catalog in a SQLite file.
	DriverSQLite = "sqlite"
)

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > config file > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	DefaultCapacityGB    float64
	Capacities           map[string]float64
	QuantizationScale    int
	MaxItems             int
	MaxCapacityUnits     int
	MaxTableCells        int
	CatalogDriver        string
	CatalogPath          string
	SeedSample           bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// fileConfig represents the YAML/TOML configuration file structure.
type fileConfig struct {
	Port                 string           `yaml:"port" toml:"port"`
	LogLevel             string           `yaml:"log_level" toml:"log_level"`
	ShutdownGracePeriod  string           `yaml:"shutdown_grace_period" toml:"shutdown_grace_period"`
	ReadHeaderTimeout    string           `yaml:"read_header_timeout" toml:"read_header_timeout"`
	WriteTimeout         string           `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout          string           `yaml:"idle_timeout" toml:"idle_timeout"`
	EnableRequestLogging *bool            `yaml:"enable_request_logging" toml:"enable_request_logging"`
	Capacity             fileCapacity     `yaml:"capacity" toml:"capacity"`
	Quantization         fileQuantization `yaml:"quantization" toml:"quantization"`
	Catalog              fileCatalog      `yaml:"catalog" toml:"catalog"`
	RateLimit            fileRateLimit    `yaml:"rate_limit" toml:"rate_limit"`
}

type fileCapacity struct {
	DefaultGB  *float64           `yaml:"default_gb" toml:"default_gb"`
	Categories map[string]float64 `yaml:"categories" toml:"categories"`
}

type fileQuantization struct {
	Scale            int `yaml:"scale" toml:"scale"`
	MaxItems         int `yaml:"max_items" toml:"max_items"`
	MaxCapacityUnits int `yaml:"max_capacity_units" toml:"max_capacity_units"`
	MaxTableCells    int `yaml:"max_table_cells" toml:"max_table_cells"`
}

type fileCatalog struct {
	Driver     string `yaml:"driver" toml:"driver"`
	Path       string `yaml:"path" toml:"path"`
	SeedSample *bool  `yaml:"seed_sample" toml:"seed_sample"`
}

// fileRateLimit represents the rate limit section of the config file.
type fileRateLimit struct {
	RPS   *float64 `yaml:"rps" toml:"rps"`
	Burst *int     `yaml:"burst" toml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	CapacityGB     *float64
	CapacitiesStr  *string
	Scale          *int
	CatalogDriver  *string
	CatalogPath    *string
	SeedSample     *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > config file > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		fileCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", overrides.ConfigFile, err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// CategoryCapacities returns the capacity of every known category, with
// explicit per-category capacities taking precedence over DefaultCapacityGB.
func (c Config) CategoryCapacities() map[string]float64 {
	out := make(map[string]float64, len(c.Capacities)+len(catalog.Categories()))
	for _, category := range catalog.Categories() {
		out[category] = c.DefaultCapacityGB
	}
	for category, capacity := range c.Capacities {
		out[category] = capacity
	}
	return out
}

// SolverOptions translates quantization settings into solver options.
func (c Config) SolverOptions() []optimizer.Option {
	return []optimizer.Option{
		optimizer.WithScale(c.QuantizationScale),
		optimizer.WithMaxItems(c.MaxItems),
		optimizer.WithMaxCapacityUnits(c.MaxCapacityUnits),
		optimizer.WithMaxTableCells(c.MaxTableCells),
	}
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             "info",
		DefaultCapacityGB:    storage.DefaultCapacityGB,
		Capacities:           map[string]float64{},
		QuantizationScale:    optimizer.DefaultScale,
		MaxItems:             defaultMaxItems,
		MaxCapacityUnits:     defaultMaxUnits,
		MaxTableCells:        defaultMaxTableCells,
		CatalogDriver:        DriverMemory,
		SeedSample:           false,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML or TOML file, chosen by extension.
func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}

	return &fileCfg, nil
}

// applyFileConfig applies file configuration to the Config struct.
func applyFileConfig(cfg *Config, fileCfg *fileConfig) error {
	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(fileCfg.LogLevel)
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", fileCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", fileCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", fileCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", fileCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if fileCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *fileCfg.EnableRequestLogging
	}

	if fileCfg.Capacity.DefaultGB != nil {
		cfg.DefaultCapacityGB = *fileCfg.Capacity.DefaultGB
	}
	for category, capacity := range fileCfg.Capacity.Categories {
		cfg.Capacities[category] = capacity
	}

	if fileCfg.Quantization.Scale != 0 {
		cfg.QuantizationScale = fileCfg.Quantization.Scale
	}
	if fileCfg.Quantization.MaxItems != 0 {
		cfg.MaxItems = fileCfg.Quantization.MaxItems
	}
	if fileCfg.Quantization.MaxCapacityUnits != 0 {
		cfg.MaxCapacityUnits = fileCfg.Quantization.MaxCapacityUnits
	}
	if fileCfg.Quantization.MaxTableCells != 0 {
		cfg.MaxTableCells = fileCfg.Quantization.MaxTableCells
	}

	if fileCfg.Catalog.Driver != "" {
		cfg.CatalogDriver = strings.ToLower(fileCfg.Catalog.Driver)
	}
	if fileCfg.Catalog.Path != "" {
		cfg.CatalogPath = fileCfg.Catalog.Path
	}
	if fileCfg.Catalog.SeedSample != nil {
		cfg.SeedSample = *fileCfg.Catalog.SeedSample
	}

	if fileCfg.RateLimit.RPS != nil && *fileCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *fileCfg.RateLimit.RPS
	}
	if fileCfg.RateLimit.Burst != nil && *fileCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *fileCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if raw := strings.TrimSpace(os.Getenv("DEFAULT_CAPACITY_GB")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("DEFAULT_CAPACITY_GB: invalid number %q", raw)
		}
		cfg.DefaultCapacityGB = value
	}

	if raw := strings.TrimSpace(os.Getenv("CAPACITIES")); raw != "" {
		capacities, err := parseCapacities(raw)
		if err != nil {
			return fmt.Errorf("CAPACITIES: %w", err)
		}
		for category, capacity := range capacities {
			cfg.Capacities[category] = capacity
		}
	}

	if raw := strings.TrimSpace(os.Getenv("QUANTIZATION_SCALE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("QUANTIZATION_SCALE: invalid integer %q", raw)
		}
		cfg.QuantizationScale = value
	}

	if driver := strings.TrimSpace(os.Getenv("CATALOG_DRIVER")); driver != "" {
		cfg.CatalogDriver = strings.ToLower(driver)
	}

	if path := strings.TrimSpace(os.Getenv("CATALOG_PATH")); path != "" {
		cfg.CatalogPath = path
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}

	if overrides.CapacityGB != nil {
		cfg.DefaultCapacityGB = *overrides.CapacityGB
	}

	if overrides.CapacitiesStr != nil && *overrides.CapacitiesStr != "" {
		capacities, err := parseCapacities(*overrides.CapacitiesStr)
		if err != nil {
			return fmt.Errorf("parse capacities: %w", err)
		}
		for category, capacity := range capacities {
			cfg.Capacities[category] = capacity
		}
	}

	if overrides.Scale != nil {
		cfg.QuantizationScale = *overrides.Scale
	}

	if overrides.CatalogDriver != nil && *overrides.CatalogDriver != "" {
		cfg.CatalogDriver = strings.ToLower(*overrides.CatalogDriver)
	}

	if overrides.CatalogPath != nil && *overrides.CatalogPath != "" {
		cfg.CatalogPath = *overrides.CatalogPath
	}

	if overrides.SeedSample != nil {
		cfg.SeedSample = *overrides.SeedSample
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("log level must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}
	if cfg.QuantizationScale <= 0 {
		return fmt.Errorf("quantization scale must be positive, got %d", cfg.QuantizationScale)
	}
	if cfg.MaxItems <= 0 || cfg.MaxCapacityUnits <= 0 || cfg.MaxTableCells <= 0 {
		return fmt.Errorf("solver limits must be positive")
	}
	for category, capacity := range cfg.CategoryCapacities() {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("capacity category cannot be empty")
		}
		if math.IsNaN(capacity) || math.IsInf(capacity, 0) || capacity < 0 {
			return fmt.Errorf("capacity for %q must be a finite non-negative number, got %v", category, capacity)
		}
	}
	switch cfg.CatalogDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(cfg.CatalogPath) == "" {
			return fmt.Errorf("catalog path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("catalog driver must be %q or %q, got %q", DriverMemory, DriverSQLite, cfg.CatalogDriver)
	}
	return nil
}

// parseCapacities parses a comma-separated list of category=GB pairs.
func parseCapacities(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, value, ok := strings.Cut(part, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("expected category=GB, got %q", part)
		}
		capacity, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capacity %q for %s", value, category)
		}
		if capacity < 0 {
			return nil, fmt.Errorf("capacity must be non-negative, got %v for %s", capacity, category)
		}
		out[category] = capacity
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no capacities provided")
	}
	return out, nil
}
