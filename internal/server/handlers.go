package server

import (
	"encoding/json"
	"net/http"

	"bashgate/internal/oauth"
	"bashgate/pkg/logging"
	pkgoauth "bashgate/pkg/oauth"
)

// maxRequestBodySize limits JSON request bodies (registration).
const maxRequestBodySize = 1 << 20

// handleIndex serves the landing page. ServeMux routes every unmatched
// path here, so anything other than "/" itself is a 404.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.renderPage(w, "index.html", indexData{ServerName: ServerName})
}

// handleAuthorize is the OAuth authorization endpoint. It validates the
// request and renders the consent page. Validation failures are answered
// directly; the user agent is never redirected before the redirect URI
// has been verified against the client's registration.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	params := oauth.AuthorizeParams{
		ClientID:            query.Get("client_id"),
		RedirectURI:         query.Get("redirect_uri"),
		ResponseType:        query.Get("response_type"),
		Scope:               query.Get("scope"),
		State:               query.Get("state"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
	}

	request, err := s.authService.BeginAuthorization(params)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	client, err := s.registry.Get(request.ClientID)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	s.renderPage(w, "consent.html", consentData{
		ClientName:  client.Name,
		Scope:       request.Scope,
		RedirectURI: request.RedirectURI,
		RequestID:   request.ID,
	})
}

// handleApprove receives the consent decision. Approval mints the
// authorization code and redirects back to the client; denial redirects
// with error=access_denied. Either way the pending request is gone
// afterwards.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, oauth.ErrorCodeInvalidRequest, "malformed form body", http.StatusBadRequest)
		return
	}

	requestID := r.PostFormValue("request_id")

	var redirect string
	var err error
	switch action := r.PostFormValue("action"); action {
	case "approve":
		redirect, err = s.authService.Approve(requestID)
	case "deny":
		redirect, err = s.authService.Deny(requestID)
	default:
		writeError(w, oauth.ErrorCodeInvalidRequest, "action must be approve or deny", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeFlowError(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// handleRegister is the dynamic client registration endpoint (RFC 7591).
// The client_secret of a confidential client appears in this response and
// is never disclosed again.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req pkgoauth.ClientRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, oauth.ErrorCodeInvalidRequest, "malformed JSON body", http.StatusBadRequest)
		return
	}

	client, err := s.registry.Register(req.ClientName, req.ClientType, req.RedirectURIs)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, pkgoauth.ClientRegistrationResponse{
		ClientID:     client.ID,
		ClientSecret: client.Secret,
		ClientName:   client.Name,
		ClientType:   client.Type,
		RedirectURIs: client.RedirectURIs,
	})
}

// handleToken is the token endpoint. Only the authorization_code grant is
// supported; client credentials travel in the form body
// (client_secret_post), not in an Authorization header.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, oauth.ErrorCodeInvalidRequest, "malformed form body", http.StatusBadRequest)
		return
	}

	if grantType := r.PostFormValue("grant_type"); grantType != "authorization_code" {
		writeError(w, oauth.ErrorCodeUnsupportedGrantType, "only the authorization_code grant is supported", http.StatusBadRequest)
		return
	}

	token, err := s.issuer.Exchange(oauth.ExchangeParams{
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	// RFC 6749 section 5.1: token responses must not be cached.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, pkgoauth.TokenResponse{
		AccessToken: token.Token,
		TokenType:   "Bearer",
		ExpiresIn:   token.TTL(),
		Scope:       token.Scope,
	})
}

// handleMetadata serves the authorization server metadata (RFC 8414).
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, oauth.ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	base := s.config.BaseURL
	writeJSON(w, http.StatusOK, pkgoauth.Metadata{
		Issuer:                            base,
		AuthorizationEndpoint:             base + "/authorize",
		TokenEndpoint:                     base + "/token",
		RegistrationEndpoint:              base + "/register",
		ScopesSupported:                   []string{oauth.DefaultScope},
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "none"},
		CodeChallengeMethodsSupported:     []string{pkgoauth.ChallengeMethodS256},
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to encode JSON response")
	}
}

// writeError writes a structured OAuth error response (RFC 6749 section 5.2).
func writeError(w http.ResponseWriter, code, description string, status int) {
	writeJSON(w, status, pkgoauth.ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeFlowError maps a service error onto the wire. Anything that is not
// a FlowError is unexpected and collapses to server_error.
func writeFlowError(w http.ResponseWriter, err error) {
	if flowErr, ok := oauth.AsFlowError(err); ok {
		writeError(w, flowErr.Code, flowErr.Description, statusForCode(flowErr.Code))
		return
	}
	logging.Error("Server", err, "Unclassified error reached the HTTP layer")
	writeError(w, oauth.ErrorCodeServerError, "internal server error", http.StatusInternalServerError)
}

// statusForCode maps OAuth error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case oauth.ErrorCodeInvalidClient, oauth.ErrorCodeInvalidToken:
		return http.StatusUnauthorized
	case oauth.ErrorCodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
