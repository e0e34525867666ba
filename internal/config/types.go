package config

import (
	"fmt"
	"time"
)

// Environment values for ServerConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default credential lifetimes, used when the config does not override them.
const (
	DefaultPendingRequestTTL    = 10 * time.Minute
	DefaultAuthorizationCodeTTL = time.Minute
	DefaultAccessTokenTTL       = time.Hour
	DefaultCleanupInterval      = time.Minute
)

// Config is the top-level configuration structure for bashgate.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	OAuth   OAuthConfig   `yaml:"oauth,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig defines where the HTTP server binds and which mode it runs in.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"` // Host to bind to (default: localhost)
	Port int    `yaml:"port,omitempty"` // Port for the HTTP listener (default: 8085)

	// Environment selects production or development behavior. In development
	// the /mcp endpoint skips bearer token validation.
	Environment string `yaml:"environment,omitempty"`
}

// BindAddress returns the host:port string for the listener.
func (s ServerConfig) BindAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the issuer URL advertised to clients.
func (s ServerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s", s.BindAddress())
}

// IsDevelopment reports whether the token gate on /mcp is disabled.
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == EnvDevelopment
}

// OAuthConfig tunes credential lifetimes. Values are Go duration strings
// ("90s", "2h"); empty or malformed values fall back to the defaults.
type OAuthConfig struct {
	PendingRequestTTL    string `yaml:"pendingRequestTTL,omitempty"`    // Authorization request lifetime (default: 10m)
	AuthorizationCodeTTL string `yaml:"authorizationCodeTTL,omitempty"` // Authorization code lifetime (default: 1m)
	AccessTokenTTL       string `yaml:"accessTokenTTL,omitempty"`       // Access token lifetime (default: 1h)
	CleanupInterval      string `yaml:"cleanupInterval,omitempty"`      // Expired-entry sweep interval (default: 1m)
}

// GetPendingRequestTTL returns how long an unapproved authorization request lives.
func (o OAuthConfig) GetPendingRequestTTL() time.Duration {
	return durationOr(o.PendingRequestTTL, DefaultPendingRequestTTL)
}

// GetAuthorizationCodeTTL returns how long an unredeemed authorization code lives.
func (o OAuthConfig) GetAuthorizationCodeTTL() time.Duration {
	return durationOr(o.AuthorizationCodeTTL, DefaultAuthorizationCodeTTL)
}

// GetAccessTokenTTL returns the access token lifetime.
func (o OAuthConfig) GetAccessTokenTTL() time.Duration {
	return durationOr(o.AccessTokenTTL, DefaultAccessTokenTTL)
}

// GetCleanupInterval returns how often expired entries are swept.
func (o OAuthConfig) GetCleanupInterval() time.Duration {
	return durationOr(o.CleanupInterval, DefaultCleanupInterval)
}

// durationOr parses a Go duration string, falling back to def when the
// value is empty, malformed, or not positive.
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return def
}

// LoggingConfig controls log verbosity and the optional log file.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error (default: info)
	File  string `yaml:"file,omitempty"`  // Log file path; empty logs to stderr only
}

// GetDefaultConfig returns the default configuration for bashgate.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8085,
			Environment: EnvProduction,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
