// Package config provides configuration for the lineage services. Settings
// come from environment variables with the LINEAGE_ prefix, with sensible
// defaults; an optional YAML file overrides the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the lineage binaries.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 7878)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// APIConfig contains remote kitty API configuration.
type APIConfig struct {
	BaseURL         string `yaml:"base_url"`          // API base URL (default: public v3 endpoint)
	TimeoutSeconds  int    `yaml:"timeout_seconds"`   // Per-request timeout (default: 20)
	PrefetchDelayMS int    `yaml:"prefetch_delay_ms"` // Delay between background prefetch requests (default: 150)
}

// CrawlConfig contains fetch-CLI configuration.
type CrawlConfig struct {
	CachePath string `yaml:"cache_path"` // SQLite payload cache path (default: ./data/lineage-cache.db)
	DelayMS   int    `yaml:"delay_ms"`   // Delay between crawl requests (default: 200)
}

// SecurityConfig contains authentication settings for the HTTP surface.
type SecurityConfig struct {
	SecurityMode string `yaml:"security_mode"` // development or production (default: development)
	APIToken     string `yaml:"api_token"`     // Bearer token required in production
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("LINEAGE_PORT", 7878),
			Host: getEnv("LINEAGE_HOST", "127.0.0.1"),
		},
		API: APIConfig{
			BaseURL:         getEnv("LINEAGE_API_BASE_URL", "https://api.cryptokitties.co/v3"),
			TimeoutSeconds:  getEnvInt("LINEAGE_API_TIMEOUT_SECONDS", 20),
			PrefetchDelayMS: getEnvInt("LINEAGE_PREFETCH_DELAY_MS", 150),
		},
		Crawl: CrawlConfig{
			CachePath: getEnv("LINEAGE_CRAWL_CACHE_PATH", "./data/lineage-cache.db"),
			DelayMS:   getEnvInt("LINEAGE_CRAWL_DELAY_MS", 200),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("LINEAGE_SECURITY_MODE", "development"),
			APIToken:     getEnv("LINEAGE_API_TOKEN", ""),
		},
	}
}

// LoadConfigFile loads configuration from environment variables and then
// overlays values from a YAML file. Zero values in the file leave the
// environment-derived value in place.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyOverlay(cfg, &overlay)
	return cfg, nil
}

func applyOverlay(cfg, overlay *Config) {
	if overlay.Server.Port != 0 {
		cfg.Server.Port = overlay.Server.Port
	}
	if overlay.Server.Host != "" {
		cfg.Server.Host = overlay.Server.Host
	}
	if overlay.API.BaseURL != "" {
		cfg.API.BaseURL = overlay.API.BaseURL
	}
	if overlay.API.TimeoutSeconds != 0 {
		cfg.API.TimeoutSeconds = overlay.API.TimeoutSeconds
	}
	if overlay.API.PrefetchDelayMS != 0 {
		cfg.API.PrefetchDelayMS = overlay.API.PrefetchDelayMS
	}
	if overlay.Crawl.CachePath != "" {
		cfg.Crawl.CachePath = overlay.Crawl.CachePath
	}
	if overlay.Crawl.DelayMS != 0 {
		cfg.Crawl.DelayMS = overlay.Crawl.DelayMS
	}
	if overlay.Security.SecurityMode != "" {
		cfg.Security.SecurityMode = overlay.Security.SecurityMode
	}
	if overlay.Security.APIToken != "" {
		cfg.Security.APIToken = overlay.Security.APIToken
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. An unparseable value falls back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
