package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	pkgoauth "bashgate/pkg/oauth"
)

// StoredToken is the on-disk representation of an issued token together
// with the server it belongs to.
type StoredToken struct {
	pkgoauth.Token

	// ServerURL is the base URL of the server the token authenticates to.
	ServerURL string `json:"server_url"`

	// CreatedAt is when the token was stored.
	CreatedAt time.Time `json:"created_at"`
}

// TokenStore persists OAuth tokens between CLI invocations.
//
// SECURITY: This store handles credentials. Token files are created with
// 0600 permissions, the storage directory with 0700, and token values are
// never logged.
type TokenStore struct {
	mu         sync.RWMutex
	storageDir string
	tokens     map[string]*StoredToken
}

// NewTokenStore creates a token store rooted at storageDir. An empty
// storageDir selects ~/.config/bashgate/tokens.
func NewTokenStore(storageDir string) (*TokenStore, error) {
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, pkgoauth.DefaultTokenStorageDir)
	}

	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token storage directory: %w", err)
	}

	return &TokenStore{
		storageDir: storageDir,
		tokens:     make(map[string]*StoredToken),
	}, nil
}

// Save stores a token for a server, replacing any previous one.
func (s *TokenStore) Save(serverURL string, token *pkgoauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredToken{
		Token:     *token,
		ServerURL: pkgoauth.NormalizeServerURL(serverURL),
		CreatedAt: time.Now(),
	}

	key := tokenKey(stored.ServerURL)
	if err := s.writeTokenFile(key, stored); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.tokens[key] = stored

	return nil
}

// Get retrieves the stored token for a server. Returns nil when no token
// exists or the stored token has expired.
func (s *TokenStore) Get(serverURL string) *StoredToken {
	key := tokenKey(pkgoauth.NormalizeServerURL(serverURL))

	s.mu.RLock()
	if token, ok := s.tokens[key]; ok && !token.IsExpired() {
		s.mu.RUnlock()
		return token
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[key]; ok {
		if !token.IsExpired() {
			return token
		}
		delete(s.tokens, key)
		return nil
	}

	token, err := s.readTokenFile(key)
	if err != nil || token.IsExpired() {
		return nil
	}
	s.tokens[key] = token
	return token
}

// List returns every stored token, expired ones included, sorted by
// server URL. The caller decides how to present stale entries.
func (s *TokenStore) List() ([]*StoredToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read token storage directory: %w", err)
	}

	var tokens []*StoredToken
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		token, err := s.readTokenFile(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		tokens = append(tokens, token)
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].ServerURL < tokens[j].ServerURL
	})
	return tokens, nil
}

// Delete removes the stored token for a server. Deleting a token that
// does not exist is not an error.
func (s *TokenStore) Delete(serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(pkgoauth.NormalizeServerURL(serverURL))
	delete(s.tokens, key)

	err := os.Remove(s.tokenPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// DeleteAll removes every stored token and reports how many were deleted.
func (s *TokenStore) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read token storage directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.storageDir, entry.Name())); err != nil {
			return deleted, fmt.Errorf("failed to delete token file: %w", err)
		}
		deleted++
	}

	s.tokens = make(map[string]*StoredToken)
	return deleted, nil
}

// tokenKey generates a filesystem-safe identifier for a server URL.
func tokenKey(serverURL string) string {
	hash := sha256.Sum256([]byte(serverURL))
	return hex.EncodeToString(hash[:16])
}

func (s *TokenStore) tokenPath(key string) string {
	return filepath.Join(s.storageDir, key+".json")
}

func (s *TokenStore) writeTokenFile(key string, token *StoredToken) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.tokenPath(key), data, 0600)
}

func (s *TokenStore) readTokenFile(key string) (*StoredToken, error) {
	// #nosec G304 -- path is derived from a hash, not user input
	data, err := os.ReadFile(s.tokenPath(key))
	if err != nil {
		return nil, err
	}

	var token StoredToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}
