// Package config loads runtime configuration from multiple sources (YAML or TOML
// files, environment variables, CLI flags) with precedence: CLI flags > config
// file > environment variables > defaults. It exposes strongly typed settings to
// the rest of the application.
package config
