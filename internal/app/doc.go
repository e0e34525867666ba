// Package app provides application bootstrap, lifecycle management, and
// configuration handling for bashgate.
//
// # Architecture Overview
//
// The app package is the composition root. It has four components:
//
// 1. **Bootstrap (`bootstrap.go`)**: logging setup and configuration loading
// 2. **Configuration (`config.go`)**: runtime configuration and flag overrides
// 3. **Services (`services.go`)**: construction of the OAuth core, the bash
// MCP server, and the HTTP server in dependency order
// 4. **Run loop (`run.go`)**: serving, signal handling, config watching, and
// graceful shutdown
//
// # Initialization Sequence
//
//  1. Logging is initialized at a provisional level so config loading is visible
//  2. config.yaml is loaded from the configured directory (defaults apply when missing)
//  3. Command line overrides (host, port, development mode) are folded in
//  4. Logging is re-initialized with the configured level and optional log file
//  5. The credential store, OAuth services, MCP server, and HTTP server are built
//
// # Lifecycle
//
// Run blocks until SIGINT/SIGTERM or context cancellation, then drains
// in-flight MCP sessions, stops the listener, and closes the credential
// store. Under systemd, readiness and stopping notifications are sent
// through the notify socket.
//
// While running, the config directory is watched; log level changes are
// applied without a restart.
//
// # Usage
//
//	cfg := app.NewConfig(debug, silent, configPath)
//	cfg.Version = buildVersion
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
package app
