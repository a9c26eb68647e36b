package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "DEFAULT_CAPACITY_GB", "CAPACITIES", "QUANTIZATION_SCALE",
		"CATALOG_DRIVER", "CATALOG_PATH", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
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
	if cfg.QuantizationScale != 10 {
		t.Fatalf("expected default scale 10, got %d", cfg.QuantizationScale)
	}
	if cfg.CatalogDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %s", cfg.CatalogDriver)
	}
	capacities := cfg.CategoryCapacities()
	if len(capacities) != 3 || capacities["movies"] != 23 {
		t.Fatalf("unexpected default capacities: %v", capacities)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_CAPACITY_GB", "46")
	t.Setenv("CAPACITIES", "movies=25, mini-series = 4.7")
	t.Setenv("QUANTIZATION_SCALE", "100")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.QuantizationScale != 100 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected scale/log level: %d/%s", cfg.QuantizationScale, cfg.LogLevel)
	}
	capacities := cfg.CategoryCapacities()
	if capacities["movies"] != 25 || capacities["mini-series"] != 4.7 || capacities["tv-series"] != 46 {
		t.Fatalf("unexpected capacities: %v", capacities)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUANTIZATION_SCALE", "ten")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for invalid scale")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	path := writeFile(t, "config.yaml", `
port: "7000"
log_level: warn
enable_request_logging: false
write_timeout: 20s
capacity:
  default_gb: 46
  categories:
    movies: 23.5
quantization:
  scale: 100
catalog:
  driver: sqlite
  path: /tmp/catalog.db
  seed_sample: true
rate_limit:
  rps: 5
  burst: 10
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7000" {
		t.Fatalf("config file should override environment, got %s", cfg.Port)
	}
	if cfg.EnableRequestLogging || cfg.LogLevel != "warn" || cfg.WriteTimeout != 20*time.Second {
		t.Fatalf("unexpected logging/timeout settings: %+v", cfg)
	}
	if got := cfg.CategoryCapacities(); got["movies"] != 23.5 || got["tv-series"] != 46 {
		t.Fatalf("unexpected capacities: %v", got)
	}
	if cfg.QuantizationScale != 100 || cfg.CatalogDriver != DriverSQLite || !cfg.SeedSample {
		t.Fatalf("unexpected solver/catalog settings: %+v", cfg)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.toml", `
port = "7100"

[capacity]
default_gb = 25.0

[capacity.categories]
tv-series = 50.0

[catalog]
driver = "memory"
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "7100" {
		t.Fatalf("unexpected port %s", cfg.Port)
	}
	if got := cfg.CategoryCapacities(); got["movies"] != 25 || got["tv-series"] != 50 {
		t.Fatalf("unexpected capacities: %v", got)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "idle_timeout: soon\n")

	if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadCLIOverridesWin(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "port: \"7000\"\n")

	port := "6000"
	capacity := 50.0
	capacities := "movies=4.7"
	scale := 1
	driver := "SQLITE"
	catalogPath := filepath.Join(t.TempDir(), "catalog.db")

	cfg, err := Load(&CLIOverrides{
		ConfigFile:    path,
		Port:          &port,
		CapacityGB:    &capacity,
		CapacitiesStr: &capacities,
		Scale:         &scale,
		CatalogDriver: &driver,
		CatalogPath:   &catalogPath,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "6000" || cfg.QuantizationScale != 1 || cfg.CatalogDriver != DriverSQLite {
		t.Fatalf("CLI overrides not applied: %+v", cfg)
	}
	if got := cfg.CategoryCapacities(); got["movies"] != 4.7 || got["tv-series"] != 50 {
		t.Fatalf("unexpected capacities: %v", got)
	}
	if len(cfg.SolverOptions()) != 4 {
		t.Fatalf("expected solver options for every limit")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := map[string]func(*Config){
		"ZeroScale":          func(c *Config) { c.QuantizationScale = 0 },
		"BadLogLevel":        func(c *Config) { c.LogLevel = "loud" },
		"NegativeCapacity":   func(c *Config) { c.Capacities["movies"] = -1 },
		"UnknownDriver":      func(c *Config) { c.CatalogDriver = "postgres" },
		"SQLiteWithoutPath":  func(c *Config) { c.CatalogDriver = DriverSQLite },
		"NegativeBurst":      func(c *Config) { c.RateLimitBurst = -1 },
		"NonPositiveLimits":  func(c *Config) { c.MaxTableCells = 0 },
		"NegativeDefaultCap": func(c *Config) { c.DefaultCapacityGB = -5 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseCapacities(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parseCapacities("movies=23, tv-series=46.5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["movies"] != 23 || got["tv-series"] != 46.5 {
			t.Fatalf("unexpected capacities: %v", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{" , ", "movies", "movies=abc", "=23", "movies=-1"} {
			if _, err := parseCapacities(raw); err == nil {
				t.Fatalf("expected error for %q", raw)
			}
		}
	})
}
