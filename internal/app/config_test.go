package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bashgate/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, false, "/tmp/bashgate-config")

	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Silent)
	assert.Equal(t, "/tmp/bashgate-config", cfg.ConfigPath)
	assert.Nil(t, cfg.FileConfig)
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name     string
		appCfg   Config
		wantHost string
		wantPort int
		wantEnv  string
	}{
		{
			name:     "no overrides keep file values",
			appCfg:   Config{},
			wantHost: "localhost",
			wantPort: 8085,
			wantEnv:  config.EnvProduction,
		},
		{
			name:     "host and port",
			appCfg:   Config{Host: "127.0.0.1", Port: 9000},
			wantHost: "127.0.0.1",
			wantPort: 9000,
			wantEnv:  config.EnvProduction,
		},
		{
			name:     "development flag",
			appCfg:   Config{Development: true},
			wantHost: "localhost",
			wantPort: 8085,
			wantEnv:  config.EnvDevelopment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileCfg := config.GetDefaultConfig()
			tt.appCfg.applyOverrides(&fileCfg)

			assert.Equal(t, tt.wantHost, fileCfg.Server.Host)
			assert.Equal(t, tt.wantPort, fileCfg.Server.Port)
			assert.Equal(t, tt.wantEnv, fileCfg.Server.Environment)
		})
	}
}

func TestApplyOverrides_CannotDisableDevelopment(t *testing.T) {
	fileCfg := config.GetDefaultConfig()
	fileCfg.Server.Environment = config.EnvDevelopment

	(&Config{Development: false}).applyOverrides(&fileCfg)

	assert.Equal(t, config.EnvDevelopment, fileCfg.Server.Environment)
}
