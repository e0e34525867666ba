package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"bashgate/internal/config"
	"bashgate/pkg/logging"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// runServer starts the HTTP server and blocks until a termination signal
// arrives or the context is canceled. Shutdown drains in-flight MCP
// sessions before closing the listener and the credential store.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): triggers graceful shutdown
//   - SIGTERM: triggers graceful shutdown (container environments)
//
// When running under systemd, readiness and stopping notifications are
// sent through the notify socket; outside systemd they are no-ops.
func runServer(ctx context.Context, cfg *Config, services *Services) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return services.HTTPServer.Start()
	})

	// Watch the config directory so log level changes apply without a
	// restart. Everything else in the file needs one.
	watcher := startConfigWatcher(cfg)
	if watcher != nil {
		defer watcher.Stop()
	}

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logging.Info("Server", "Received %s, shutting down", sig)
		case <-gctx.Done():
		}

		if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
			logging.Debug("Server", "systemd notify failed: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := services.BashServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Failed to drain MCP sessions")
		}
		return services.HTTPServer.Shutdown(shutdownCtx)
	})

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("Server", "systemd notify failed: %v", err)
	}
	logging.Info("Server", "bashgate ready at %s. Press Ctrl+C to stop.", cfg.FileConfig.Server.BaseURL())

	err := g.Wait()

	services.Store.Close()

	logging.Info("Server", "Shutdown complete")
	return err
}

// startConfigWatcher begins watching the effective config directory and
// hot-applies the log level on changes. Returns nil when watching could
// not be started; the server keeps running without it.
func startConfigWatcher(cfg *Config) *config.Watcher {
	watcher := config.NewWatcher(config.WatcherConfig{
		ConfigDir: cfg.effectiveConfigPath,
		OnChange: func() {
			reloaded, err := config.LoadConfig(cfg.effectiveConfigPath)
			if err != nil {
				logging.Error("Config", err, "Ignoring config change: reload failed")
				return
			}
			if cfg.Debug {
				// --debug pins the level for this run.
				return
			}
			level := logging.ParseLevel(reloaded.Logging.Level)
			logging.SetLevel(level)
			logging.Info("Config", "Applied log level %s from changed configuration", level)
		},
	})

	if err := watcher.Start(); err != nil {
		logging.Warn("Config", "Config watching disabled: %v", err)
		return nil
	}
	return watcher
}
