package oauth

import (
	"sync"
	"time"

	"bashgate/pkg/logging"
)

// Store is the storage contract for the authorization server's credential
// state: registered clients, pending authorization requests, authorization
// codes, and access tokens. Implementations must be safe for concurrent
// use, and every mutation must be visible to all goroutines once the call
// returns.
//
// Lookups never return expired entries; an expired entry behaves exactly
// like a missing one.
type Store interface {
	// SaveClient stores a newly registered client.
	// Returns ErrClientExists when the id is already taken.
	SaveClient(client *Client) error

	// GetClient returns the client or ErrClientNotFound.
	GetClient(id string) (*Client, error)

	// SaveAuthorizationRequest parks a validated request awaiting the
	// resource owner's decision. Returns ErrRequestExists on id collision.
	SaveAuthorizationRequest(request *AuthorizationRequest) error

	// TakeAuthorizationRequest atomically removes and returns the pending
	// request, so at most one decision can ever act on it. Returns
	// ErrRequestNotFound for missing or expired requests.
	TakeAuthorizationRequest(id string) (*AuthorizationRequest, error)

	// SaveAuthorizationCode stores a freshly minted code.
	// Returns ErrCodeExists on collision.
	SaveAuthorizationCode(code *AuthorizationCode) error

	// ConsumeAuthorizationCode atomically marks the code consumed and
	// returns it. Exactly one caller per code can succeed; concurrent and
	// repeat callers get ErrCodeConsumed, missing or expired codes
	// ErrCodeNotFound.
	ConsumeAuthorizationCode(code string) (*AuthorizationCode, error)

	// SaveAccessToken stores a minted token.
	// Returns ErrTokenExists on collision.
	SaveAccessToken(token *AccessToken) error

	// GetAccessToken returns the live token or ErrTokenNotFound.
	GetAccessToken(token string) (*AccessToken, error)

	// Close stops background work. Safe to call more than once.
	Close()
}

// MemoryStore is the in-process Store implementation. All state lives in
// maps guarded by a single RWMutex and disappears when the process exits.
//
// Consumed authorization codes are kept until they expire so that a replay
// is observed as "already consumed" rather than "not found".
type MemoryStore struct {
	mu sync.RWMutex

	clients  map[string]*Client
	requests map[string]*AuthorizationRequest
	codes    map[string]*AuthorizationCode
	tokens   map[string]*AccessToken

	// Cleanup
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store with the default sweep interval
// (1 minute).
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithInterval(time.Minute)
}

// NewMemoryStoreWithInterval creates an in-memory store with a custom sweep
// interval and starts the background sweeper.
func NewMemoryStoreWithInterval(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		clients:         make(map[string]*Client),
		requests:        make(map[string]*AuthorizationRequest),
		codes:           make(map[string]*AuthorizationCode),
		tokens:          make(map[string]*AccessToken),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// SaveClient stores a newly registered client.
func (s *MemoryStore) SaveClient(client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ID]; exists {
		return ErrClientExists
	}

	stored := *client
	stored.RedirectURIs = append([]string(nil), client.RedirectURIs...)
	s.clients[client.ID] = &stored

	logging.Debug("Store", "Saved client id=%s type=%s uris=%d", client.ID, client.Type, len(client.RedirectURIs))
	return nil
}

// GetClient returns a copy of the client.
func (s *MemoryStore) GetClient(id string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}

	clientCopy := *client
	clientCopy.RedirectURIs = append([]string(nil), client.RedirectURIs...)
	return &clientCopy, nil
}

// SaveAuthorizationRequest parks a pending authorization request.
func (s *MemoryStore) SaveAuthorizationRequest(request *AuthorizationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.ID]; exists {
		return ErrRequestExists
	}

	stored := *request
	s.requests[request.ID] = &stored

	logging.Debug("Store", "Saved authorization request id=%s client=%s", logging.TruncateToken(request.ID), request.ClientID)
	return nil
}

// TakeAuthorizationRequest atomically removes and returns a pending request.
func (s *MemoryStore) TakeAuthorizationRequest(id string) (*AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}

	// Removal happens regardless of expiry; a decided or dead request must
	// never be decidable twice.
	delete(s.requests, id)

	if request.IsExpired() {
		logging.Debug("Store", "Authorization request expired id=%s", logging.TruncateToken(id))
		return nil, ErrRequestNotFound
	}

	taken := *request
	return &taken, nil
}

// SaveAuthorizationCode stores a freshly minted authorization code.
func (s *MemoryStore) SaveAuthorizationCode(code *AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.Code]; exists {
		return ErrCodeExists
	}

	stored := *code
	s.codes[code.Code] = &stored

	logging.Debug("Store", "Saved authorization code prefix=%s client=%s", logging.TruncateToken(code.Code), code.ClientID)
	return nil
}

// ConsumeAuthorizationCode atomically marks a code consumed and returns it.
// Only one concurrent caller can succeed; the check-and-set runs under the
// write lock.
func (s *MemoryStore) ConsumeAuthorizationCode(code string) (*AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authCode, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}

	if authCode.IsExpired() {
		delete(s.codes, code)
		logging.Debug("Store", "Authorization code expired prefix=%s", logging.TruncateToken(code))
		return nil, ErrCodeNotFound
	}

	if authCode.Consumed {
		// Replay. The entry stays until expiry so later attempts keep
		// hitting this branch.
		logging.Warn("Store", "Authorization code replay detected prefix=%s client=%s", logging.TruncateToken(code), authCode.ClientID)
		return nil, ErrCodeConsumed
	}

	authCode.Consumed = true

	consumed := *authCode
	return &consumed, nil
}

// SaveAccessToken stores a minted access token.
func (s *MemoryStore) SaveAccessToken(token *AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.Token]; exists {
		return ErrTokenExists
	}

	stored := *token
	s.tokens[token.Token] = &stored

	logging.Debug("Store", "Saved access token prefix=%s client=%s expires=%v", logging.TruncateToken(token.Token), token.ClientID, token.ExpiresAt)
	return nil
}

// GetAccessToken returns a copy of a live token.
func (s *MemoryStore) GetAccessToken(token string) (*AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accessToken, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}

	if accessToken.IsExpired() {
		// Treated as absent; the sweeper reclaims the entry.
		return nil, ErrTokenNotFound
	}

	tokenCopy := *accessToken
	return &tokenCopy, nil
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// cleanupLoop periodically sweeps expired entries.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes expired requests, codes, and tokens. Clients are never
// swept; they live for the process lifetime.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0

	for id, request := range s.requests {
		if request.IsExpired() {
			delete(s.requests, id)
			cleaned++
		}
	}

	for code, authCode := range s.codes {
		if authCode.IsExpired() {
			delete(s.codes, code)
			cleaned++
		}
	}

	for token, accessToken := range s.tokens {
		if accessToken.IsExpired() {
			delete(s.tokens, token)
			cleaned++
		}
	}

	if cleaned > 0 {
		logging.Debug("Store", "Cleaned up %d expired entries", cleaned)
	}
}
