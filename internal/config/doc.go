// Package config provides configuration management for bashgate.
//
// Configuration is loaded from a single directory containing config.yaml.
// The default directory is ~/.config/bashgate; commands accept a
// --config-path flag to point elsewhere. A missing config.yaml is not an
// error: the defaults from GetDefaultConfig apply.
//
// # File Format
//
// config.yaml holds three sections:
//
//	server:
//	  host: localhost
//	  port: 8085
//	  environment: production   # "development" disables the /mcp token gate
//	oauth:
//	  pendingRequestTTL: 10m
//	  authorizationCodeTTL: 1m
//	  accessTokenTTL: 1h
//	  cleanupInterval: 1m
//	logging:
//	  level: info
//	  file: /var/log/bashgate/server.log
//
// Durations are Go duration strings; malformed values silently fall back to
// the defaults so that a typo cannot take the server down.
//
// # Hot Reload
//
// Watcher monitors config.yaml (fsnotify with a polling fallback) and
// invokes a callback after a debounce interval. Only the logging level is
// re-applied at runtime; server address and TTL changes require a restart.
package config
