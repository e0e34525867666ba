package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bashgate/internal/cli"
	"bashgate/pkg/auth"
	pkgoauth "bashgate/pkg/oauth"
)

func TestAuthCommandWiring(t *testing.T) {
	// Test auth command group properties
	if authCmd.Use != "auth" {
		t.Errorf("Expected Use to be 'auth', got %s", authCmd.Use)
	}

	expectedSubcommands := []string{"login", "logout", "status"}
	foundSubcommands := make(map[string]bool)
	for _, cmd := range authCmd.Commands() {
		foundSubcommands[cmd.Name()] = true
	}
	for _, expected := range expectedSubcommands {
		if !foundSubcommands[expected] {
			t.Errorf("Expected auth subcommand %s to be registered", expected)
		}
	}

	for _, flag := range []string{"endpoint", "config-path", "quiet"} {
		if authCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Expected persistent flag --%s to be registered", flag)
		}
	}
}

func TestAuthLoginCommand(t *testing.T) {
	if authLoginCmd.Use != "login" {
		t.Errorf("Expected Use to be 'login', got %s", authLoginCmd.Use)
	}
	if authLoginCmd.RunE == nil {
		t.Error("Expected RunE function to be set")
	}
	if authLoginCmd.Flags().Lookup("yes") == nil {
		t.Error("Expected --yes flag to be registered")
	}
}

func TestRunAuthLogin(t *testing.T) {
	ts := newLoginTestServer(t)
	silenceLoginPrompts(t)
	t.Setenv("HOME", t.TempDir())

	originalEndpoint := authEndpoint
	defer func() { authEndpoint = originalEndpoint }()
	authEndpoint = ts.URL

	if err := runAuthLogin(authLoginCmd, []string{}); err != nil {
		t.Fatalf("runAuthLogin failed: %v", err)
	}

	// The issued token must have been persisted for later commands.
	store, err := auth.NewTokenStore("")
	if err != nil {
		t.Fatalf("Failed to open token store: %v", err)
	}

	stored := store.Get(ts.URL)
	if stored == nil {
		t.Fatal("Expected a stored token after login")
	}
	if stored.AccessToken == "" {
		t.Error("Expected a non-empty stored access token")
	}
	if stored.Issuer != ts.URL {
		t.Errorf("Expected stored issuer %s, got %s", ts.URL, stored.Issuer)
	}
}

func TestRunAuthLoginUnreachable(t *testing.T) {
	silenceLoginPrompts(t)
	t.Setenv("HOME", t.TempDir())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := ts.URL
	ts.Close()

	originalEndpoint := authEndpoint
	defer func() { authEndpoint = originalEndpoint }()
	authEndpoint = endpoint

	err := runAuthLogin(authLoginCmd, []string{})
	if err == nil {
		t.Fatal("Expected an error for an unreachable server")
	}

	var connErr *cli.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected a ConnectionError, got %T: %v", err, err)
	}
	if getExitCode(err) != ExitCodeError {
		t.Errorf("Expected exit code %d for a connection error, got %d", ExitCodeError, getExitCode(err))
	}
}

func TestRunAuthLogout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	originalEndpoint := authEndpoint
	originalQuiet := authQuiet
	defer func() {
		authEndpoint = originalEndpoint
		authQuiet = originalQuiet
	}()
	authQuiet = true

	endpoint := "http://127.0.0.1:4444"
	store, err := auth.NewTokenStore("")
	if err != nil {
		t.Fatalf("Failed to open token store: %v", err)
	}
	token := pkgoauth.Token{
		AccessToken: "tok-logout",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	if err := store.Save(endpoint, &token); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	authEndpoint = endpoint
	if err := runAuthLogout(authLogoutCmd, []string{}); err != nil {
		t.Fatalf("runAuthLogout failed: %v", err)
	}

	// A fresh store sees the disk state, not this test's cache.
	fresh, err := auth.NewTokenStore("")
	if err != nil {
		t.Fatalf("Failed to reopen token store: %v", err)
	}
	if fresh.Get(endpoint) != nil {
		t.Error("Expected the token to be deleted after logout")
	}

	// Logging out again is not an error.
	if err := runAuthLogout(authLogoutCmd, []string{}); err != nil {
		t.Errorf("Expected logout without a stored token to succeed, got: %v", err)
	}
}

func TestRunAuthLogoutAll(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	originalAll := logoutAll
	originalYes := logoutYes
	originalQuiet := authQuiet
	defer func() {
		logoutAll = originalAll
		logoutYes = originalYes
		authQuiet = originalQuiet
	}()
	logoutAll = true
	logoutYes = true
	authQuiet = true

	store, err := auth.NewTokenStore("")
	if err != nil {
		t.Fatalf("Failed to open token store: %v", err)
	}
	for _, endpoint := range []string{"http://127.0.0.1:4444", "http://127.0.0.1:5555"} {
		token := pkgoauth.Token{
			AccessToken: "tok-" + endpoint,
			TokenType:   "Bearer",
			ExpiresAt:   time.Now().Add(time.Hour),
		}
		if err := store.Save(endpoint, &token); err != nil {
			t.Fatalf("Failed to save token for %s: %v", endpoint, err)
		}
	}

	if err := runAuthLogout(authLogoutCmd, []string{}); err != nil {
		t.Fatalf("runAuthLogout --all failed: %v", err)
	}

	remaining, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list tokens: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected no tokens after logout --all, got %d", len(remaining))
	}

	// Clearing an empty store is not an error either.
	if err := runAuthLogout(authLogoutCmd, []string{}); err != nil {
		t.Errorf("Expected logout --all on an empty store to succeed, got: %v", err)
	}
}
