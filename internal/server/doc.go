// Package server is the HTTP front of bashgate. It assembles the OAuth
// 2.0 authorization endpoints and the protected MCP endpoint into a
// single route table.
//
// # Architecture
//
// The server is both the authorization server and the protected resource:
//   - OAuth 2.0 authorization code flow with mandatory PKCE (S256)
//   - Dynamic client registration (RFC 7591)
//   - Authorization server metadata (RFC 8414)
//   - Bearer token middleware guarding the MCP endpoint (RFC 6750)
//
// Requests flow through the middleware before reaching the tool handler:
//
//	[ Request Logging ]
//	        │
//	        ▼
//	[ Bearer Middleware ]  ── 401 + WWW-Authenticate when invalid
//	        │
//	        ▼
//	[ MCP Tool Handler ]
//
// # Endpoints
//
//   - GET  /                                        - Landing page
//   - GET  /.well-known/oauth-authorization-server  - Metadata (RFC 8414)
//   - POST /register                                - Client registration (RFC 7591)
//   - GET  /authorize                               - Authorization endpoint (consent page)
//   - POST /approve                                 - Consent decision
//   - POST /token                                   - Token endpoint
//   - GET  /health                                  - Liveness probe
//   - /mcp                                          - Protected MCP endpoint (Bearer token)
//
// In development mode the bearer middleware is not installed on /mcp;
// everything else stays the same.
package server
