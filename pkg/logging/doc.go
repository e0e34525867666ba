// Package logging provides a structured logging system for bashgate with
// unified log handling and level filtering.
//
// This package implements a logging system built on Go's standard slog
// package, providing consistent logging behavior with structured output.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// All entries carry a timestamp, the level, a subsystem identifier for
// categorization, the formatted message, and optional error information.
//
// # Usage
//
//	import "bashgate/pkg/logging"
//
//	// Initialize with Info level logging to stdout
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	// Log messages
//	logging.Info("Bootstrap", "Application starting up")
//	logging.Debug("Config", "Loaded configuration from %s", configPath)
//	logging.Warn("OAuth", "Authorization attempt by unknown client id=%s", clientID)
//	logging.Error("Server", err, "Failed to bind listener")
//
// To log to a file in addition to stdout, compose the writers:
//
//	logFile, _ := logging.OpenFile("~/.config/bashgate/bashgate.log")
//	logging.InitForCLI(logging.LevelDebug, io.MultiWriter(os.Stdout, logFile))
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **Bootstrap**: Application initialization and startup
//   - **Config**: Configuration loading, validation, and hot reload
//   - **OAuth**: Authorization flows, token issuance, and validation
//   - **Store**: Credential storage and expiry sweeps
//   - **Server**: HTTP serving, request handling, and shutdown
//   - **MCP**: The protected tool-execution backend
//
// # Runtime Level Changes
//
// SetLevel adjusts the minimum level without reinitializing handlers; the
// config watcher uses it to hot-apply log level edits.
//
// # Credential Hygiene
//
// Never log a full token, code, or secret. TruncateToken keeps a short
// prefix that is enough to correlate log lines without disclosing the
// credential:
//
//	logging.Info("OAuth", "Issued access token prefix=%s", logging.TruncateToken(token))
//
// # Thread Safety
//
// The logging system is fully thread-safe: concurrent logging from
// multiple goroutines is safe, and level changes are visible to in-flight
// loggers.
package logging
