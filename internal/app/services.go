package app

import (
	"fmt"

	"bashgate/internal/bashserver"
	"bashgate/internal/oauth"
	"bashgate/internal/server"
	"bashgate/pkg/logging"
)

// Services holds all initialized components used by the application.
//
// The services are initialized in dependency order:
//  1. Credential store (shared by everything below)
//  2. OAuth services (registry, authorization, issuer, validator)
//  3. Bash MCP server
//  4. HTTP server wiring the OAuth endpoints and the protected MCP handler
type Services struct {
	// Store is the credential store backing all OAuth state. It owns a
	// background sweeper and must be closed on shutdown.
	Store oauth.Store

	// Registry manages dynamically registered clients.
	Registry *oauth.Registry

	// Authorization handles pending authorization requests and consent
	// decisions.
	Authorization *oauth.AuthorizationService

	// Issuer redeems authorization codes for access tokens.
	Issuer *oauth.Issuer

	// Validator authenticates bearer tokens on the protected endpoint.
	Validator *oauth.Validator

	// BashServer executes commands over MCP.
	BashServer *bashserver.Server

	// HTTPServer is the assembled HTTP front.
	HTTPServer *server.Server
}

// InitializeServices creates all components from the loaded configuration.
func InitializeServices(cfg *Config) (*Services, error) {
	fileCfg := cfg.FileConfig
	if fileCfg == nil {
		return nil, fmt.Errorf("configuration has not been loaded")
	}

	oauthCfg := fileCfg.OAuth
	store := oauth.NewMemoryStoreWithInterval(oauthCfg.GetCleanupInterval())

	registry := oauth.NewRegistry(store)
	authorization := oauth.NewAuthorizationService(store, oauthCfg.GetPendingRequestTTL(), oauthCfg.GetAuthorizationCodeTTL())
	issuer := oauth.NewIssuer(store, oauthCfg.GetAccessTokenTTL())
	validator := oauth.NewValidator(store)

	bashServer := bashserver.New(cfg.Version)

	httpServer, err := server.New(server.Config{
		BindAddress: fileCfg.Server.BindAddress(),
		BaseURL:     fileCfg.Server.BaseURL(),
		Development: fileCfg.Server.IsDevelopment(),
	}, registry, authorization, issuer, validator, bashServer.Handler())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if fileCfg.Server.IsDevelopment() {
		logging.Warn("Services", "Development environment: MCP endpoint will not require authentication")
	}

	logging.Info("Services", "Initialized services (issuer %s, token TTL %s)", fileCfg.Server.BaseURL(), oauthCfg.GetAccessTokenTTL())

	return &Services{
		Store:         store,
		Registry:      registry,
		Authorization: authorization,
		Issuer:        issuer,
		Validator:     validator,
		BashServer:    bashServer,
		HTTPServer:    httpServer,
	}, nil
}
