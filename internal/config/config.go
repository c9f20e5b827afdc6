// Package config loads and validates gateway configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/quartzlabs/marketpulse-mcp/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `toml:"server"`
	Upstream UpstreamConfig       `toml:"upstream"`
	Catalog  CatalogConfig        `toml:"catalog"`
	Logging  common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains MCP transport settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// UpstreamConfig contains the MarketPulse API client settings.
// BaseURL and APIKey are mandatory; everything else has defaults.
type UpstreamConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the request timeout duration.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CatalogConfig contains the operation catalog source settings.
// An empty Path means the bundled catalog is used.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies MARKETPULSE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("MARKETPULSE_MCP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MARKETPULSE_MCP_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("MARKETPULSE_API_URL"); url != "" {
		config.Upstream.BaseURL = url
	}
	if key := os.Getenv("MARKETPULSE_API_KEY"); key != "" {
		config.Upstream.APIKey = key
	}
	if path := os.Getenv("MARKETPULSE_CATALOG_PATH"); path != "" {
		config.Catalog.Path = path
	}
	if level := os.Getenv("MARKETPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("MARKETPULSE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory configuration and returns a list of issues.
// An empty list means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		issues = append(issues, "upstream.base_url is required (or set MARKETPULSE_API_URL)")
	} else if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		issues = append(issues, fmt.Sprintf("upstream.base_url %q must start with http:// or https://", c.Upstream.BaseURL))
	}
	if strings.TrimSpace(c.Upstream.APIKey) == "" {
		issues = append(issues, "upstream.api_key is required (or set MARKETPULSE_API_KEY)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	return issues
}
