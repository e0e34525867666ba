package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"bashgate/internal/oauth"
	"bashgate/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// ServerName is used as the realm in bearer challenges and on the
	// rendered pages.
	ServerName = "bashgate"

	// metadataPath is the RFC 8414 discovery document location.
	metadataPath = "/.well-known/oauth-authorization-server"
)

// Config holds the HTTP server configuration.
type Config struct {
	// BindAddress is the host:port the server listens on.
	BindAddress string

	// BaseURL is the externally visible base URL, used as the issuer
	// identifier and to build endpoint URLs in the discovery document.
	BaseURL string

	// Development disables the bearer token requirement on the MCP
	// endpoint. Never enable this outside local setups.
	Development bool
}

// Server is the HTTP front for the authorization server and the protected
// MCP endpoint. It owns the route table: OAuth endpoints are served
// directly, the MCP handler is mounted behind the bearer token middleware.
type Server struct {
	config      Config
	registry    *oauth.Registry
	authService *oauth.AuthorizationService
	issuer      *oauth.Issuer
	validator   *oauth.Validator
	mcpHandler  http.Handler
	templates   *template.Template
	httpServer  *http.Server
}

// New creates the HTTP server. The MCP handler is mounted at /mcp behind
// token validation unless cfg.Development is set.
func New(cfg Config, registry *oauth.Registry, authService *oauth.AuthorizationService, issuer *oauth.Issuer, validator *oauth.Validator, mcpHandler http.Handler) (*Server, error) {
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      cfg,
		registry:    registry,
		authService: authService,
		issuer:      issuer,
		validator:   validator,
		mcpHandler:  mcpHandler,
		templates:   templates,
	}, nil
}

// CreateMux assembles the route table and wraps it with request logging.
func (s *Server) CreateMux() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for probes (unauthenticated)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/", s.handleIndex)

	s.setupOAuthRoutes(mux)
	s.setupMCPRoutes(mux)

	return logRequests(mux)
}

// setupOAuthRoutes registers the OAuth 2.0 endpoints on the mux.
//
// CORS headers are only set on the endpoints browser-based MCP clients
// call programmatically (discovery, registration, token). The interactive
// pages stay same-origin.
func (s *Server) setupOAuthRoutes(mux *http.ServeMux) {
	// Authorization Server Metadata endpoint (RFC 8414)
	mux.Handle(metadataPath, withCORS(http.HandlerFunc(s.handleMetadata)))

	// Dynamic Client Registration endpoint (RFC 7591)
	mux.Handle("/register", withCORS(http.HandlerFunc(s.handleRegister)))

	// Authorization endpoint (renders the consent page)
	mux.HandleFunc("/authorize", s.handleAuthorize)

	// Consent decision endpoint (form target of the consent page)
	mux.HandleFunc("/approve", s.handleApprove)

	// Token endpoint
	mux.Handle("/token", withCORS(http.HandlerFunc(s.handleToken)))

	logging.Info("Server", "Registered OAuth 2.0 endpoints")
}

// setupMCPRoutes mounts the MCP handler, protected by the bearer token
// middleware unless development mode is on.
func (s *Server) setupMCPRoutes(mux *http.ServeMux) {
	if s.config.Development {
		mux.Handle("/mcp", s.mcpHandler)
		logging.Warn("Server", "Development mode: /mcp is served WITHOUT authentication")
		return
	}

	mux.Handle("/mcp", s.requireToken(s.mcpHandler))
	logging.Info("Server", "Protected /mcp with bearer token middleware")
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.BindAddress,
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	logging.Info("Server", "Listening on %s (issuer %s)", s.config.BindAddress, s.config.BaseURL)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// metadataURL returns the absolute URL of the discovery document.
func (s *Server) metadataURL() string {
	return s.config.BaseURL + metadataPath
}

// validateBaseURL ensures the issuer URL is usable. HTTP is allowed for
// loopback addresses only; anything else must be HTTPS.
func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host == "localhost" || host == "127.0.0.1" || host == "::1" {
			return nil
		}
		return fmt.Errorf("plain HTTP is only allowed for loopback addresses (got: %s)", baseURL)
	default:
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}
}
