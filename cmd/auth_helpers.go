package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"bashgate/internal/cli"
	"bashgate/internal/config"
	"bashgate/pkg/auth"
	pkgoauth "bashgate/pkg/oauth"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Auth timeout constants.
const (
	// DefaultAuthStepTimeout bounds each network step of the login flow.
	DefaultAuthStepTimeout = 30 * time.Second
	// DefaultStatusCheckTimeout is the timeout for verifying a token against the server.
	DefaultStatusCheckTimeout = 10 * time.Second
)

// cliClientName is the client name the CLI registers under.
const cliClientName = "bashgate-cli"

// cliRedirectURI is the redirect URI the CLI registers. It is never served:
// the CLI intercepts the approval redirect and reads the code from the
// Location header instead of following it.
const cliRedirectURI = "http://localhost:8486/callback"

// requestIDPattern extracts the pending request ID from the consent page.
var requestIDPattern = regexp.MustCompile(`name="request_id" value="([^"]+)"`)

// newTokenStore opens the CLI token store in the default location.
func newTokenStore() (*auth.TokenStore, error) {
	store, err := auth.NewTokenStore("")
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return store, nil
}

// resolveEndpoint returns the server base URL to authenticate against.
// Precedence: --endpoint flag, BASHGATE_ENDPOINT, then the address from the
// configuration file.
func resolveEndpoint() (string, error) {
	endpoint := authEndpoint
	if endpoint == "" {
		endpoint = cli.GetDefaultEndpoint()
	}
	if endpoint == "" {
		configPath := authConfigPath
		if configPath == "" {
			configPath = config.GetDefaultConfigPathOrPanic()
		}
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		endpoint = cfg.Server.BaseURL()
	}
	return pkgoauth.NormalizeServerURL(endpoint), nil
}

// authSpinner starts a progress spinner unless quiet mode is on.
// The returned spinner may be nil; stop it with stopSpinner.
func authSpinner(suffix string) *spinner.Spinner {
	if authQuiet {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}

// noRedirectHTTPClient returns redirect responses to the caller instead of
// following them. The approval redirect carries the authorization code.
func noRedirectHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultAuthStepTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// loginFlow walks the full authorization code flow against a bashgate
// server from the console: discover metadata, register a public client,
// fetch the consent page, confirm with the user, approve, and exchange the
// code with PKCE. Returns nil, nil when the user declines.
func loginFlow(ctx context.Context, endpoint string) (*pkgoauth.Token, error) {
	client := pkgoauth.NewClient()

	s := authSpinner(" Discovering authorization server...")
	// The protected endpoint's 401 challenge names the metadata document;
	// well-known discovery against the server root is the fallback.
	metadata, err := client.DiscoverFromChallenge(ctx, endpoint+"/mcp")
	if metadata == nil {
		metadata, err = client.DiscoverMetadata(ctx, endpoint)
	}
	stopSpinner(s)
	if err != nil {
		if connErr := cli.ClassifyConnectionError(err, endpoint); connErr != nil && connErr.Type != cli.ConnectionErrorUnknown {
			return nil, connErr
		}
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	if !metadata.SupportsPKCE() {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: fmt.Errorf("server does not support PKCE (S256)")}
	}
	if metadata.RegistrationEndpoint == "" {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: fmt.Errorf("server does not support dynamic client registration")}
	}

	scope := ""
	if len(metadata.ScopesSupported) > 0 {
		scope = metadata.ScopesSupported[0]
	}

	s = authSpinner(" Registering client...")
	registration, err := client.RegisterClient(ctx, metadata.RegistrationEndpoint, &pkgoauth.ClientRegistrationRequest{
		ClientName:   cliClientName,
		ClientType:   "public",
		RedirectURIs: []string{cliRedirectURI},
	})
	stopSpinner(s)
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	pkce, err := pkgoauth.GeneratePKCE()
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	authURL, err := client.BuildAuthorizationURL(metadata.AuthorizationEndpoint, registration.ClientID, cliRedirectURI, state, scope, pkce)
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	requestID, err := fetchConsentRequestID(ctx, authURL)
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	if !loginYes {
		authPrintln()
		authPrint("%s requests authorization:\n", endpoint)
		authPrint("  Client:     %s (%s)\n", cliClientName, registration.ClientID)
		if scope != "" {
			authPrint("  Scope:      %s\n", scope)
		}
		authPrintln()

		ok, err := confirm("Grant this CLI access? [y/N]: ")
		if err != nil {
			return nil, err
		}
		if !ok {
			// Resolve the pending request server-side before giving up.
			_, _ = submitDecision(ctx, metadata.Issuer, requestID, "deny")
			fmt.Println("Cancelled.")
			return nil, nil
		}
	}

	code, err := approveAndCaptureCode(ctx, metadata.Issuer, requestID, state)
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	s = authSpinner(" Exchanging authorization code...")
	token, err := client.ExchangeCode(ctx, metadata.TokenEndpoint, code, cliRedirectURI, registration.ClientID, "", pkce.CodeVerifier)
	stopSpinner(s)
	if err != nil {
		return nil, &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	token.Issuer = metadata.Issuer
	return token, nil
}

// fetchConsentRequestID requests the authorization endpoint and extracts
// the pending request ID from the rendered consent page.
func fetchConsentRequestID(ctx context.Context, authURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", err
	}

	httpClient := &http.Client{Timeout: DefaultAuthStepTimeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read consent page: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authorization request rejected (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	match := requestIDPattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("consent page did not contain a request ID")
	}
	return string(match[1]), nil
}

// submitDecision posts an approve or deny decision for a pending request
// and returns the redirect location.
func submitDecision(ctx context.Context, issuer, requestID, action string) (*url.URL, error) {
	form := url.Values{
		"request_id": {requestID},
		"action":     {action},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, issuer+"/approve", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := noRedirectHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("approval rejected (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	location, err := resp.Location()
	if err != nil {
		return nil, fmt.Errorf("approval response had no redirect: %w", err)
	}
	return location, nil
}

// approveAndCaptureCode approves the pending request and pulls the
// authorization code out of the redirect, verifying the state round-trip.
func approveAndCaptureCode(ctx context.Context, issuer, requestID, state string) (string, error) {
	location, err := submitDecision(ctx, issuer, requestID, "approve")
	if err != nil {
		return "", err
	}

	query := location.Query()
	if errCode := query.Get("error"); errCode != "" {
		return "", fmt.Errorf("authorization denied: %s", errCode)
	}
	if got := query.Get("state"); got != state {
		return "", fmt.Errorf("state mismatch in authorization response")
	}

	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("authorization response carried no code")
	}
	return code, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	expiredAgo := -remaining
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(expiredAgo))
}
