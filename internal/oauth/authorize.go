package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bashgate/pkg/logging"
	pkgoauth "bashgate/pkg/oauth"
)

// AuthorizeParams carries the query parameters of a GET /authorize request.
type AuthorizeParams struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizationService validates authorization requests and turns the
// resource owner's decision into a redirect back to the client.
type AuthorizationService struct {
	store      Store
	requestTTL time.Duration
	codeTTL    time.Duration
}

// NewAuthorizationService creates the service. requestTTL bounds how long a
// pending request may await a decision; codeTTL bounds the redemption
// window of minted authorization codes.
func NewAuthorizationService(store Store, requestTTL, codeTTL time.Duration) *AuthorizationService {
	return &AuthorizationService{
		store:      store,
		requestTTL: requestTTL,
		codeTTL:    codeTTL,
	}
}

// BeginAuthorization validates the request and parks it pending the
// resource owner's decision.
//
// Every failure here surfaces directly to the caller instead of
// redirecting: until both the client and the redirect_uri have been
// verified, redirecting would hand the error (and the user) to an address
// the server never vetted.
func (s *AuthorizationService) BeginAuthorization(params AuthorizeParams) (*AuthorizationRequest, error) {
	if params.ClientID == "" {
		return nil, NewFlowError(ErrorCodeInvalidRequest, "client_id is required", ErrInvalidClient)
	}

	client, err := s.store.GetClient(params.ClientID)
	if err != nil {
		logging.Warn("OAuth", "Authorization attempt by unknown client id=%s", params.ClientID)
		return nil, NewFlowError(ErrorCodeInvalidClient, "unknown client", ErrInvalidClient)
	}

	if params.RedirectURI == "" {
		return nil, NewFlowError(ErrorCodeInvalidRequest, "redirect_uri is required", ErrInvalidRedirectURI)
	}
	if !client.HasRedirectURI(params.RedirectURI) {
		logging.Warn("OAuth", "Redirect URI not registered client=%s uri=%s", client.ID, params.RedirectURI)
		return nil, NewFlowError(ErrorCodeInvalidRequest, "redirect_uri is not registered for this client", ErrInvalidRedirectURI)
	}

	if params.ResponseType != "code" {
		return nil, NewFlowError(ErrorCodeUnsupportedResponseType, "only the authorization code flow is supported", nil)
	}

	if params.CodeChallenge == "" {
		return nil, NewFlowError(ErrorCodeInvalidRequest, "code_challenge is required", ErrUnsupportedChallengeMethod)
	}
	if params.CodeChallengeMethod != pkgoauth.ChallengeMethodS256 {
		return nil, NewFlowError(ErrorCodeInvalidRequest,
			fmt.Sprintf("code_challenge_method must be %s", pkgoauth.ChallengeMethodS256),
			ErrUnsupportedChallengeMethod)
	}

	scope := params.Scope
	if scope == "" {
		scope = DefaultScope
	}

	now := time.Now()
	request := &AuthorizationRequest{
		ClientID:            client.ID,
		RedirectURI:         params.RedirectURI,
		Scope:               scope,
		State:               params.State,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.requestTTL),
	}

	for {
		request.ID = uuid.NewString()
		err := s.store.SaveAuthorizationRequest(request)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrRequestExists) {
			return nil, NewFlowError(ErrorCodeServerError, "failed to store authorization request", err)
		}
	}

	logging.Debug("OAuth", "Parked authorization request id=%s client=%s scope=%s", logging.TruncateToken(request.ID), client.ID, scope)

	return request, nil
}

// Approve redeems the pending request for a fresh authorization code and
// returns the redirect URL carrying code and state.
//
// The request is taken out of the store atomically, so a request id yields
// at most one code no matter how many approvals race.
func (s *AuthorizationService) Approve(requestID string) (string, error) {
	request, err := s.takeRequest(requestID)
	if err != nil {
		return "", err
	}

	code := &AuthorizationCode{
		ClientID:            request.ClientID,
		RedirectURI:         request.RedirectURI,
		Scope:               request.Scope,
		CodeChallenge:       request.CodeChallenge,
		CodeChallengeMethod: request.CodeChallengeMethod,
		CreatedAt:           time.Now(),
		ExpiresAt:           time.Now().Add(s.codeTTL),
	}

	for {
		value, err := pkgoauth.NewSecret()
		if err != nil {
			return "", NewFlowError(ErrorCodeServerError, "failed to generate authorization code", err)
		}
		code.Code = value
		err = s.store.SaveAuthorizationCode(code)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrCodeExists) {
			return "", NewFlowError(ErrorCodeServerError, "failed to store authorization code", err)
		}
	}

	logging.Info("OAuth", "Authorization approved client=%s code=%s", request.ClientID, logging.TruncateToken(code.Code))

	return redirectWith(request, url.Values{"code": {code.Code}}), nil
}

// Deny rejects the pending request and returns the redirect URL carrying
// error=access_denied and the client's state.
func (s *AuthorizationService) Deny(requestID string) (string, error) {
	request, err := s.takeRequest(requestID)
	if err != nil {
		return "", err
	}

	logging.Info("OAuth", "Authorization denied client=%s request=%s", request.ClientID, logging.TruncateToken(requestID))

	return redirectWith(request, url.Values{"error": {ErrorCodeAccessDenied}}), nil
}

func (s *AuthorizationService) takeRequest(requestID string) (*AuthorizationRequest, error) {
	if requestID == "" {
		return nil, NewFlowError(ErrorCodeInvalidRequest, "request_id is required", ErrUnknownRequest)
	}
	request, err := s.store.TakeAuthorizationRequest(requestID)
	if err != nil {
		logging.Warn("OAuth", "Decision on unknown or expired request id=%s", logging.TruncateToken(requestID))
		return nil, NewFlowError(ErrorCodeInvalidRequest, "unknown or expired authorization request", ErrUnknownRequest)
	}
	return request, nil
}

// redirectWith appends params, plus the request's state when present, to
// the flow's redirect URI. The state value is passed through verbatim;
// only transport encoding is applied.
func redirectWith(request *AuthorizationRequest, params url.Values) string {
	if request.State != "" {
		params.Set("state", request.State)
	}

	target, err := url.Parse(request.RedirectURI)
	if err != nil {
		// Registered URIs are validated at registration; this is
		// unreachable short of store corruption.
		return request.RedirectURI
	}

	query := target.Query()
	for key, values := range params {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	target.RawQuery = query.Encode()

	return target.String()
}
