package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"bashgate/internal/config"
	"bashgate/pkg/logging"
)

// Application bootstraps and runs bashgate. It encapsulates the loaded
// configuration and the initialized services.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, build services
//  2. Execution phase: run the HTTP server until signaled
//
// Example usage:
//
//	cfg := app.NewConfig(debug, silent, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance.
// It configures logging, loads the configuration file, applies command
// line overrides, and initializes all services.
//
// Configuration Loading Behavior:
//   - If cfg.ConfigPath is set: loads from the specified directory only
//   - If cfg.ConfigPath is empty: loads from ~/.config/bashgate
//
// The returned application owns the credential store; Run closes it on
// the way out.
func NewApplication(cfg *Config) (*Application, error) {
	// Logging starts at a provisional level so configuration loading is
	// visible; the configured level and log file are applied below.
	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(bootLevel, logOutput)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	cfg.applyOverrides(&fileCfg)
	cfg.FileConfig = &fileCfg
	cfg.effectiveConfigPath = configPath

	// Re-initialize logging with the configured level and optional file.
	// The --debug flag always wins over the configured level.
	level := logging.ParseLevel(fileCfg.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	if fileCfg.Logging.File != "" && !cfg.Silent {
		logFile, err := logging.OpenFile(fileCfg.Logging.File)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to open log file %s", fileCfg.Logging.File)
			return nil, fmt.Errorf("failed to open log file %s: %w", fileCfg.Logging.File, err)
		}
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}
	logging.InitForCLI(level, logOutput)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run executes the application until the context is canceled or a
// termination signal arrives. It blocks for the lifetime of the server.
func (a *Application) Run(ctx context.Context) error {
	return runServer(ctx, a.config, a.services)
}
