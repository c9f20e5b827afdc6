package config

import "github.com/quartzlabs/marketpulse-mcp/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "MarketPulse-MCP",
			Host: "localhost",
			Port: 4270,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.marketpulse.io",
			Timeout: "30s",
		},
		Catalog: CatalogConfig{},
		Logging: common.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
