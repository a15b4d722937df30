package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the static service configuration resolved at startup. Values come
// from an optional YAML file, overridden by BMKGALERT_* environment variables.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `yaml:"database_url"`

	// RedisURL enables the detail cache when set.
	RedisURL string `yaml:"redis_url"`

	// UpstreamBaseURL is the nowcast API base URL.
	UpstreamBaseURL string `yaml:"upstream_base_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// CORSOrigin is the allowed origin for the admin UI; "*" in development.
	CORSOrigin string `yaml:"cors_origin"`

	// AutoStart starts the poll loop on boot.
	AutoStart bool `yaml:"auto_start"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		UpstreamBaseURL: "https://nowcast.bmkg.go.id/api/v1",
		LogLevel:        "info",
		CORSOrigin:      "*",
		AutoStart:       true,
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("database_url is required (BMKGALERT_DATABASE_URL)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "BMKGALERT_LISTEN_ADDR")
	setString(&cfg.DatabaseURL, "BMKGALERT_DATABASE_URL")
	setString(&cfg.RedisURL, "BMKGALERT_REDIS_URL")
	setString(&cfg.UpstreamBaseURL, "BMKGALERT_UPSTREAM_URL")
	setString(&cfg.LogLevel, "BMKGALERT_LOG_LEVEL")
	setString(&cfg.CORSOrigin, "BMKGALERT_CORS_ORIGIN")
	if v := os.Getenv("BMKGALERT_AUTO_START"); v != "" {
		cfg.AutoStart = v == "true" || v == "1"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
