package oauth

import (
	"crypto/subtle"
	"errors"
	"time"

	"bashgate/pkg/logging"
	pkgoauth "bashgate/pkg/oauth"
)

// ExchangeParams carries the form parameters of a POST /token request.
type ExchangeParams struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// Issuer redeems authorization codes for access tokens.
type Issuer struct {
	store    Store
	tokenTTL time.Duration
}

// NewIssuer creates a token issuer minting tokens with the given lifetime.
func NewIssuer(store Store, tokenTTL time.Duration) *Issuer {
	return &Issuer{
		store:    store,
		tokenTTL: tokenTTL,
	}
}

// Exchange redeems an authorization code for a fresh access token.
//
// The code is consumed first, atomically, so concurrent redemptions of the
// same code produce at most one token; every later step failing burns the
// code. On the wire all grant problems collapse to invalid_grant and all
// client authentication problems to invalid_client, with the precise
// reason going to the server log only.
func (i *Issuer) Exchange(params ExchangeParams) (*AccessToken, error) {
	authCode, err := i.store.ConsumeAuthorizationCode(params.Code)
	if err != nil {
		if errors.Is(err, ErrCodeConsumed) {
			logging.Warn("OAuth", "Token exchange with spent code prefix=%s client=%s", logging.TruncateToken(params.Code), params.ClientID)
		} else {
			logging.Warn("OAuth", "Token exchange with unknown or expired code prefix=%s client=%s", logging.TruncateToken(params.Code), params.ClientID)
		}
		return nil, invalidGrant(err)
	}

	client, err := i.store.GetClient(params.ClientID)
	if err != nil {
		logging.Warn("OAuth", "Token exchange by unknown client id=%s", params.ClientID)
		return nil, invalidClient(err)
	}
	if authCode.ClientID != client.ID {
		logging.Warn("OAuth", "Token exchange client mismatch code_client=%s caller=%s", authCode.ClientID, client.ID)
		return nil, invalidClient(nil)
	}
	if client.IsConfidential() {
		if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(params.ClientSecret)) != 1 {
			logging.Warn("OAuth", "Token exchange with wrong client secret client=%s", client.ID)
			return nil, invalidClient(nil)
		}
	}

	if params.RedirectURI != authCode.RedirectURI {
		logging.Warn("OAuth", "Token exchange redirect URI mismatch client=%s", client.ID)
		return nil, invalidGrant(nil)
	}

	if err := pkgoauth.ValidateVerifier(params.CodeVerifier); err != nil {
		logging.Warn("OAuth", "Token exchange with malformed verifier client=%s: %v", client.ID, err)
		return nil, invalidGrant(nil)
	}
	if !pkgoauth.VerifyS256(params.CodeVerifier, authCode.CodeChallenge) {
		logging.Warn("OAuth", "Token exchange PKCE verification failed client=%s", client.ID)
		return nil, invalidGrant(nil)
	}

	now := time.Now()
	token := &AccessToken{
		ClientID:  client.ID,
		Scope:     authCode.Scope,
		CreatedAt: now,
		ExpiresAt: now.Add(i.tokenTTL),
	}

	for {
		value, err := pkgoauth.NewSecret()
		if err != nil {
			return nil, NewFlowError(ErrorCodeServerError, "failed to generate access token", err)
		}
		token.Token = value
		err = i.store.SaveAccessToken(token)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrTokenExists) {
			return nil, NewFlowError(ErrorCodeServerError, "failed to store access token", err)
		}
	}

	logging.Info("OAuth", "Issued access token client=%s scope=%s prefix=%s", client.ID, token.Scope, logging.TruncateToken(token.Token))

	return token, nil
}

func invalidGrant(cause error) *FlowError {
	if cause == nil {
		cause = ErrInvalidGrant
	} else {
		cause = errors.Join(ErrInvalidGrant, cause)
	}
	return NewFlowError(ErrorCodeInvalidGrant, "authorization grant is invalid, expired, or already redeemed", cause)
}

func invalidClient(cause error) *FlowError {
	if cause == nil {
		cause = ErrInvalidClient
	} else {
		cause = errors.Join(ErrInvalidClient, cause)
	}
	return NewFlowError(ErrorCodeInvalidClient, "client authentication failed", cause)
}
