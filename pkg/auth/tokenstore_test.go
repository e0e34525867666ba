package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	pkgoauth "bashgate/pkg/oauth"
)

func testToken(expiry time.Time) *pkgoauth.Token {
	return &pkgoauth.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Scope:       "tools",
		ExpiresAt:   expiry,
	}
}

func TestTokenStore_SaveAndGet(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	serverURL := "http://localhost:8085"
	if err := store.Save(serverURL, testToken(time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	stored := store.Get(serverURL)
	if stored == nil {
		t.Fatal("Expected to get stored token, got nil")
	}

	if stored.AccessToken != "test-access-token" {
		t.Errorf("Expected access token %q, got %q", "test-access-token", stored.AccessToken)
	}

	if stored.ServerURL != serverURL {
		t.Errorf("Expected server URL %q, got %q", serverURL, stored.ServerURL)
	}
}

func TestTokenStore_GetNormalizesServerURL(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	if err := store.Save("http://localhost:8085/", testToken(time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	// A trailing slash must not produce a separate identity.
	if store.Get("http://localhost:8085") == nil {
		t.Error("Expected token lookup without trailing slash to succeed")
	}
}

func TestTokenStore_ExpiredToken(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	serverURL := "http://localhost:8085"
	if err := store.Save(serverURL, testToken(time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	if stored := store.Get(serverURL); stored != nil {
		t.Error("Expected nil for expired token, got a token")
	}
}

func TestTokenStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewTokenStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	serverURL := "http://localhost:8085"
	if err := store.Save(serverURL, testToken(time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	// Check that a file was created with owner-only permissions.
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read token directory: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 token file, got %d", len(files))
	}
	if filepath.Ext(files[0].Name()) != ".json" {
		t.Errorf("Expected .json file, got %s", files[0].Name())
	}
	if runtime.GOOS != "windows" {
		info, err := files[0].Info()
		if err != nil {
			t.Fatalf("Failed to stat token file: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
		}
	}

	// A fresh store instance must load the token from disk.
	store2, err := NewTokenStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create second token store: %v", err)
	}

	stored := store2.Get(serverURL)
	if stored == nil {
		t.Fatal("Expected to get token from file, got nil")
	}
	if stored.AccessToken != "test-access-token" {
		t.Errorf("Expected access token %q, got %q", "test-access-token", stored.AccessToken)
	}
}

func TestTokenStore_Delete(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	serverURL := "http://localhost:8085"
	if err := store.Save(serverURL, testToken(time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	if err := store.Delete(serverURL); err != nil {
		t.Fatalf("Failed to delete token: %v", err)
	}

	if stored := store.Get(serverURL); stored != nil {
		t.Error("Expected nil after deletion, got a token")
	}

	// Deleting again is not an error.
	if err := store.Delete(serverURL); err != nil {
		t.Errorf("Expected deleting a missing token to succeed, got %v", err)
	}
}

func TestTokenStore_List(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	servers := []string{"http://localhost:9000", "http://localhost:8085", "https://gate.example.com"}
	for _, serverURL := range servers {
		if err := store.Save(serverURL, testToken(time.Now().Add(time.Hour))); err != nil {
			t.Fatalf("Failed to save token for %s: %v", serverURL, err)
		}
	}

	// Expired tokens still appear in the listing.
	if err := store.Save("http://localhost:7000", testToken(time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("Failed to save expired token: %v", err)
	}

	tokens, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list tokens: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d", len(tokens))
	}

	for i := 1; i < len(tokens); i++ {
		if tokens[i-1].ServerURL >= tokens[i].ServerURL {
			t.Errorf("Expected sorted listing, got %q before %q", tokens[i-1].ServerURL, tokens[i].ServerURL)
		}
	}
}

func TestTokenStore_DeleteAll(t *testing.T) {
	store, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	for _, serverURL := range []string{"http://localhost:8085", "http://localhost:9000"} {
		if err := store.Save(serverURL, testToken(time.Now().Add(time.Hour))); err != nil {
			t.Fatalf("Failed to save token for %s: %v", serverURL, err)
		}
	}

	deleted, err := store.DeleteAll()
	if err != nil {
		t.Fatalf("Failed to delete all tokens: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted tokens, got %d", deleted)
	}

	tokens, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list tokens: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Expected empty store after DeleteAll, got %d tokens", len(tokens))
	}
}
