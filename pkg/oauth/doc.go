// Package oauth provides the OAuth 2.0 protocol primitives shared by the
// bashgate authorization server and its command-line client.
//
// # Core Components
//
//   - PKCE: S256 challenge generation and constant-time verification (RFC 7636)
//   - NewSecret: cryptographically random credential generation
//   - Metadata: authorization server metadata (RFC 8414)
//   - TokenResponse / ErrorResponse: token endpoint wire shapes (RFC 6749)
//   - WWW-Authenticate formatting and parsing for bearer challenges (RFC 6750)
//   - Client: discovery, registration and flow helpers for the auth CLI
//
// The package is deliberately free of storage and HTTP-mux concerns; those
// live in internal/oauth and internal/server respectively.
package oauth
