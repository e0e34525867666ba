// Package oauth implements the authorization server core for bashgate.
//
// This package contains the complete OAuth 2.1 authorization code flow with
// PKCE that guards the /mcp endpoint: client registration, authorization
// request validation, resource-owner approval, code-for-token exchange, and
// bearer token validation. It holds no HTTP concerns; internal/server adapts
// these components onto the mux.
//
// # Flow
//
//  1. A client registers via dynamic registration and receives a client_id
//     (confidential clients also receive a one-time client_secret)
//  2. The client opens /authorize with a PKCE S256 challenge; the request is
//     validated and parked as a pending AuthorizationRequest
//  3. The resource owner approves or denies on the consent page
//  4. Approval atomically retires the pending request and mints a short-lived
//     single-use AuthorizationCode bound to the client, redirect URI, and
//     PKCE challenge
//  5. The client redeems the code at the token endpoint, proving possession
//     of the PKCE verifier; exactly one redemption can succeed
//  6. The minted AccessToken admits requests to /mcp until it expires
//
// # Components
//
//   - Store: storage contract for clients, requests, codes, and tokens;
//     MemoryStore is the in-process implementation
//   - Registry: dynamic client registration (RFC 7591)
//   - AuthorizationService: authorization request validation and the
//     approval decision
//   - Issuer: authorization code exchange and token minting
//   - Validator: bearer token checks for the protected endpoint
//
// # Security
//
// All stored credentials are process-lifetime only; a restart invalidates
// every client, code, and token. Secret and verifier comparisons are
// constant-time. Expired entries are treated as absent at every lookup, and
// a background sweep reclaims the memory. Failure reasons at the token
// endpoint are collapsed into coarse wire codes so callers cannot probe
// which check rejected them; the precise reason goes to the server log.
package oauth
