package oauth

import (
	"errors"
	"fmt"
)

// Wire error codes (RFC 6749 section 5.2, RFC 6750 section 3.1).
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeAccessDenied            = "access_denied"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeInvalidToken            = "invalid_token"
	ErrorCodeServerError             = "server_error"
)

// Storage sentinels. Lookups treat expired entries as absent, so callers
// only ever see the NotFound sentinels for them; the store logs the precise
// reason before collapsing it.
var (
	ErrClientExists   = errors.New("client already registered")
	ErrClientNotFound = errors.New("client not found")

	ErrRequestExists   = errors.New("authorization request already stored")
	ErrRequestNotFound = errors.New("authorization request not found")

	ErrCodeExists   = errors.New("authorization code already stored")
	ErrCodeNotFound = errors.New("authorization code not found")
	ErrCodeConsumed = errors.New("authorization code already consumed")

	ErrTokenExists   = errors.New("access token already stored")
	ErrTokenNotFound = errors.New("access token not found")
)

// Flow sentinels. Services wrap these in a FlowError so callers can both
// branch on the category (errors.Is) and read the wire code off the chain.
var (
	// ErrInvalidClient covers an unknown client id and, at the token
	// endpoint, a failed client secret check.
	ErrInvalidClient = errors.New("invalid client")

	// ErrInvalidRedirectURI covers a redirect_uri that is malformed,
	// relative, or not in the client's registered set.
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// ErrUnsupportedChallengeMethod covers a missing code challenge or a
	// method other than S256.
	ErrUnsupportedChallengeMethod = errors.New("unsupported code challenge method")

	// ErrUnknownRequest covers an approval for a request id that does not
	// exist, has expired, or was already decided.
	ErrUnknownRequest = errors.New("unknown authorization request")

	// ErrInvalidGrant is the collapse bucket for every token-exchange
	// failure that is not a client authentication failure.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrUnauthorized covers a missing, unknown, or expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// FlowError couples an internal failure with the coarse wire code it must
// surface as. The description is safe to return to the client; the wrapped
// cause carries the precise reason for the server log only.
type FlowError struct {
	// Code is the OAuth wire error code.
	Code string

	// Description is the client-safe error_description.
	Description string

	cause error
}

// NewFlowError builds a FlowError. cause may be nil.
func NewFlowError(code, description string, cause error) *FlowError {
	return &FlowError{Code: code, Description: description, cause: cause}
}

func (e *FlowError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Unwrap exposes the cause for errors.Is checks in tests and logs.
func (e *FlowError) Unwrap() error {
	return e.cause
}

// AsFlowError extracts a *FlowError from an error chain. The boolean is
// false when the error carries no wire code, which callers must treat as a
// server_error.
func AsFlowError(err error) (*FlowError, bool) {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}
