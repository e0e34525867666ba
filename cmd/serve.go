package cmd

import (
	"context"
	"fmt"

	"bashgate/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveSilent suppresses console log output. Useful under systemd where
// stdout duplication is unwanted.
var serveSilent bool

// serveConfigPath specifies a custom configuration directory path.
// When set, config.yaml is loaded from this directory instead of the default
// ~/.config/bashgate location.
var serveConfigPath string

// serveHost overrides the listen host from the configuration file.
var serveHost string

// servePort overrides the listen port from the configuration file.
var servePort int

// serveDev forces development mode, which serves /mcp without token checks.
var serveDev bool

// serveCmd defines the serve command structure.
// This is the main command of bashgate: it starts the OAuth authorization
// server and the MCP bash backend behind it.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bashgate server",
	Long: `Starts the bashgate server: an OAuth 2.0 authorization server and the
MCP bash-execution endpoint it protects.

The server exposes:
  - OAuth endpoints (/authorize, /approve, /token, /register) and
    RFC 8414 discovery under /.well-known/oauth-authorization-server
  - the protected MCP endpoint at /mcp
  - a health probe at /health

Configuration:
  bashgate loads config.yaml from ~/.config/bashgate (or the directory given
  with --config-path). Flags override the file. In development mode
  (--dev or environment: development in config.yaml) the /mcp endpoint is
  served without authentication.

The process notifies systemd via sd_notify when ready and stops gracefully
on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveSilent, serveConfigPath)
	cfg.Host = serveHost
	cfg.Port = servePort
	cfg.Development = serveDev
	cfg.Version = rootCmd.Version

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveSilent, "silent", false, "Suppress console log output")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config file)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config file)")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Development mode: serve /mcp without authentication")
}
