package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerConfig_BindAddress(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 8085}
	assert.Equal(t, "localhost:8085", cfg.BindAddress())
	assert.Equal(t, "http://localhost:8085", cfg.BaseURL())
}

func TestServerConfig_IsDevelopment(t *testing.T) {
	assert.True(t, ServerConfig{Environment: EnvDevelopment}.IsDevelopment())
	assert.False(t, ServerConfig{Environment: EnvProduction}.IsDevelopment())
	assert.False(t, ServerConfig{Environment: ""}.IsDevelopment())
	assert.False(t, ServerConfig{Environment: "Development"}.IsDevelopment(), "environment comparison is exact")
}

func TestOAuthConfig_Durations(t *testing.T) {
	t.Run("defaults when empty", func(t *testing.T) {
		cfg := OAuthConfig{}
		assert.Equal(t, DefaultPendingRequestTTL, cfg.GetPendingRequestTTL())
		assert.Equal(t, DefaultAuthorizationCodeTTL, cfg.GetAuthorizationCodeTTL())
		assert.Equal(t, DefaultAccessTokenTTL, cfg.GetAccessTokenTTL())
		assert.Equal(t, DefaultCleanupInterval, cfg.GetCleanupInterval())
	})

	t.Run("parses overrides", func(t *testing.T) {
		cfg := OAuthConfig{
			PendingRequestTTL:    "5m",
			AuthorizationCodeTTL: "90s",
			AccessTokenTTL:       "2h",
			CleanupInterval:      "30s",
		}
		assert.Equal(t, 5*time.Minute, cfg.GetPendingRequestTTL())
		assert.Equal(t, 90*time.Second, cfg.GetAuthorizationCodeTTL())
		assert.Equal(t, 2*time.Hour, cfg.GetAccessTokenTTL())
		assert.Equal(t, 30*time.Second, cfg.GetCleanupInterval())
	})

	t.Run("falls back on malformed values", func(t *testing.T) {
		cfg := OAuthConfig{
			AccessTokenTTL:       "soon",
			AuthorizationCodeTTL: "-10s",
		}
		assert.Equal(t, DefaultAccessTokenTTL, cfg.GetAccessTokenTTL())
		assert.Equal(t, DefaultAuthorizationCodeTTL, cfg.GetAuthorizationCodeTTL())
	})
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, EnvProduction, cfg.Server.Environment)
	assert.False(t, cfg.Server.IsDevelopment(), "default configuration must keep the token gate on")
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
}
