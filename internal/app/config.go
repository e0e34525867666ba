package app

import (
	"bashgate/internal/config"
)

// Config holds the application runtime configuration.
type Config struct {
	// Debug forces debug-level logging regardless of the config file.
	Debug bool

	// Silent suppresses all log output.
	Silent bool

	// ConfigPath is an optional custom configuration directory.
	// When empty, ~/.config/bashgate is used.
	ConfigPath string

	// Host and Port override the listener address from the config file
	// when set (command line flags).
	Host string
	Port int

	// Development disables bearer token validation on /mcp. This is a
	// one-way override; the config file can also enable it.
	Development bool

	// Version is the build version reported by the MCP server.
	Version string

	// FileConfig is the loaded configuration after overrides.
	FileConfig *config.Config

	// effectiveConfigPath is the directory the configuration was loaded
	// from, watched for changes at runtime.
	effectiveConfigPath string
}

// NewConfig creates a new application configuration.
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}

// applyOverrides folds command line flags into the loaded file config.
func (c *Config) applyOverrides(fileCfg *config.Config) {
	if c.Host != "" {
		fileCfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		fileCfg.Server.Port = c.Port
	}
	if c.Development {
		fileCfg.Server.Environment = config.EnvDevelopment
	}
}
