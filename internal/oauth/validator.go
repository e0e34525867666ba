package oauth

import (
	"bashgate/pkg/logging"
)

// Validator authenticates bearer tokens for the protected endpoint. It
// sits on the latency path of every protected call, so it does nothing
// beyond the store lookup.
type Validator struct {
	store Store
}

// NewValidator creates a token validator backed by the given store.
func NewValidator(store Store) *Validator {
	return &Validator{store: store}
}

// Authenticate returns the token record admitting the bearer credential.
//
// Missing, unknown, and expired tokens all fail with the same error; the
// caller learns nothing about which it was.
func (v *Validator) Authenticate(bearer string) (*AccessToken, error) {
	if bearer == "" {
		return nil, unauthorized()
	}

	token, err := v.store.GetAccessToken(bearer)
	if err != nil {
		logging.Debug("OAuth", "Rejected bearer token prefix=%s", logging.TruncateToken(bearer))
		return nil, unauthorized()
	}

	logging.Debug("OAuth", "Authenticated bearer token client=%s scope=%s", token.ClientID, token.Scope)

	return token, nil
}

func unauthorized() *FlowError {
	return NewFlowError(ErrorCodeInvalidToken, "invalid or expired access token", ErrUnauthorized)
}
