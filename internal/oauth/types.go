package oauth

import (
	"time"
)

// Client types. Public clients authenticate with PKCE alone; confidential
// clients additionally hold a secret.
const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

// DefaultScope is granted when an authorization request names no scope.
const DefaultScope = "tools"

// Client is a registered OAuth client.
type Client struct {
	// ID is the unique client identifier.
	ID string

	// Secret is the client secret. Empty for public clients. The stored
	// value is the only copy; it is disclosed once at registration.
	Secret string

	// Name is the human-readable client name shown on the consent page.
	Name string

	// Type is ClientTypePublic or ClientTypeConfidential.
	Type string

	// RedirectURIs is the exact set of allowed redirect targets.
	RedirectURIs []string

	// CreatedAt is when the client registered.
	CreatedAt time.Time
}

// IsConfidential reports whether the client must present its secret at the
// token endpoint.
func (c *Client) IsConfidential() bool {
	return c.Type == ClientTypeConfidential
}

// HasRedirectURI reports whether uri exactly matches one of the registered
// redirect URIs. Matching is byte-for-byte; no prefix or pattern logic.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AuthorizationRequest is a validated /authorize request parked until the
// resource owner decides on it.
type AuthorizationRequest struct {
	// ID is the opaque handle the consent page posts back.
	ID string

	// ClientID is the requesting client.
	ClientID string

	// RedirectURI is the validated redirect target for this flow.
	RedirectURI string

	// Scope is the requested scope.
	Scope string

	// State is the client's CSRF token, echoed back verbatim on redirect.
	State string

	// CodeChallenge is the PKCE S256 challenge.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string

	// CreatedAt is when the request arrived.
	CreatedAt time.Time

	// ExpiresAt bounds how long the request may await a decision.
	ExpiresAt time.Time
}

// IsExpired reports whether the request has outlived its decision window.
func (r *AuthorizationRequest) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// AuthorizationCode is the short-lived single-use credential minted on
// approval. It inherits the flow's binding so the exchange can verify the
// same client, redirect URI, and PKCE challenge.
type AuthorizationCode struct {
	// Code is the credential value, which is also the lookup key.
	Code string

	// ClientID is the client the code was minted for.
	ClientID string

	// RedirectURI is the redirect URI the code is bound to.
	RedirectURI string

	// Scope is the approved scope carried into the token.
	Scope string

	// CodeChallenge is the PKCE challenge the verifier must prove.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string

	// CreatedAt is when the code was minted.
	CreatedAt time.Time

	// ExpiresAt bounds the redemption window.
	ExpiresAt time.Time

	// Consumed marks the code as redeemed. Set atomically exactly once.
	Consumed bool
}

// IsExpired reports whether the redemption window has closed.
func (c *AuthorizationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// AccessToken is the bearer credential that admits requests to /mcp.
type AccessToken struct {
	// Token is the credential value, which is also the lookup key.
	Token string

	// ClientID is the client the token was issued to.
	ClientID string

	// Scope is the granted scope.
	Scope string

	// CreatedAt is when the token was minted.
	CreatedAt time.Time

	// ExpiresAt is when the token stops admitting requests.
	ExpiresAt time.Time
}

// IsExpired reports whether the token no longer admits requests.
func (t *AccessToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// TTL returns the remaining lifetime in whole seconds, clamped at zero.
// The token endpoint reports this as expires_in.
func (t *AccessToken) TTL() int {
	remaining := time.Until(t.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
