package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bashgate/pkg/logging"
	pkgoauth "bashgate/pkg/oauth"
	pkgstrings "bashgate/pkg/strings"
)

// logNameLen bounds how much of a client-chosen name lands in the log.
const logNameLen = 60

// Registry implements dynamic client registration (RFC 7591 subset).
type Registry struct {
	store Store
}

// NewRegistry creates a client registry backed by the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Register validates the registration parameters, mints credentials, and
// stores the new client. The returned Client carries the plaintext secret
// for confidential clients; this is the only time the secret is disclosed.
//
// An empty clientType registers a public client, which is what native and
// CLI callers want.
func (r *Registry) Register(name, clientType string, redirectURIs []string) (*Client, error) {
	if len(redirectURIs) == 0 {
		return nil, NewFlowError(ErrorCodeInvalidRequest, "at least one redirect_uri is required", ErrInvalidRedirectURI)
	}
	for _, uri := range redirectURIs {
		if err := validateRedirectURI(uri); err != nil {
			return nil, NewFlowError(ErrorCodeInvalidRequest, err.Error(), ErrInvalidRedirectURI)
		}
	}

	switch clientType {
	case "":
		clientType = ClientTypePublic
	case ClientTypePublic, ClientTypeConfidential:
	default:
		return nil, NewFlowError(ErrorCodeInvalidRequest, fmt.Sprintf("client_type must be %q or %q", ClientTypePublic, ClientTypeConfidential), nil)
	}

	client := &Client{
		Name:         name,
		Type:         clientType,
		RedirectURIs: append([]string(nil), redirectURIs...),
		CreatedAt:    time.Now(),
	}

	if clientType == ClientTypeConfidential {
		secret, err := pkgoauth.NewSecret()
		if err != nil {
			return nil, NewFlowError(ErrorCodeServerError, "failed to generate client credentials", err)
		}
		client.Secret = secret
	}

	// UUID collisions are vanishingly rare; the retry keeps the store's
	// insert-if-absent contract honest anyway.
	for {
		client.ID = uuid.NewString()
		err := r.store.SaveClient(client)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrClientExists) {
			return nil, NewFlowError(ErrorCodeServerError, "failed to store client", err)
		}
	}

	logging.Info("OAuth", "Registered client id=%s type=%s name=%q uris=%d", client.ID, client.Type, pkgstrings.Truncate(client.Name, logNameLen), len(client.RedirectURIs))

	return client, nil
}

// Get returns the registered client or a FlowError wrapping
// ErrInvalidClient.
func (r *Registry) Get(id string) (*Client, error) {
	client, err := r.store.GetClient(id)
	if err != nil {
		return nil, NewFlowError(ErrorCodeInvalidClient, "unknown client", ErrInvalidClient)
	}
	return client, nil
}

// validateRedirectURI rejects anything that is not an absolute http or
// https URL. Exact-match checks elsewhere depend on registered URIs being
// well formed.
func validateRedirectURI(uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("redirect_uri %q is not a valid URL", uri)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("redirect_uri %q must use the http or https scheme", uri)
	}
	if parsed.Host == "" {
		return fmt.Errorf("redirect_uri %q must be absolute", uri)
	}
	return nil
}
