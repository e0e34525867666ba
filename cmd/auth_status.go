package cmd

import (
	"context"
	"strings"

	"bashgate/internal/cli"
	"bashgate/pkg/auth"
	pkgoauth "bashgate/pkg/oauth"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// minServerColumnWidth is the minimum width for the server URL column in
// the stored-token listing. This keeps the output aligned.
const minServerColumnWidth = 28

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the current authentication status.

This command displays whether you hold a token for the server, when it
expires, and verifies it against the protected endpoint. Other stored
tokens are listed below the primary endpoint.

Examples:
  bashgate auth status                   # Show status for configured server
  bashgate auth status --endpoint <url>  # Show status for specific endpoint`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	endpoint, err := resolveEndpoint()
	if err != nil {
		return err
	}

	store, err := newTokenStore()
	if err != nil {
		return err
	}

	authPrintln("Bashgate Server")
	authPrint("  Endpoint:  %s\n", endpoint)

	stored := findStoredToken(store, endpoint)

	switch {
	case stored == nil:
		showUnauthenticatedStatus(cmd.Context(), endpoint)
	case stored.IsExpired():
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Expired"))
		authPrint("  Expired:   %s\n", formatExpiryWithDirection(stored.ExpiresAt))
		authPrint("             Run: bashgate auth login\n")
	default:
		showVerifiedAuthStatus(cmd.Context(), store, endpoint, stored)
	}

	showOtherStoredTokens(store, endpoint)
	return nil
}

// findStoredToken looks up the stored token for an endpoint, expired
// entries included so their state can be reported.
func findStoredToken(store *auth.TokenStore, endpoint string) *auth.StoredToken {
	tokens, err := store.List()
	if err != nil {
		return nil
	}
	normalized := pkgoauth.NormalizeServerURL(endpoint)
	for _, token := range tokens {
		if token.ServerURL == normalized {
			return token
		}
	}
	return nil
}

// showVerifiedAuthStatus verifies the token with the server before showing
// "Authenticated". This catches tokens invalidated server-side (e.g. a
// server restart dropped the in-memory store) while the local expiry time
// has not passed yet.
func showVerifiedAuthStatus(ctx context.Context, store *auth.TokenStore, endpoint string, stored *auth.StoredToken) {
	probeCtx, cancel := context.WithTimeout(ctx, DefaultStatusCheckTimeout)
	status := cli.ProbeAuth(probeCtx, endpoint, stored.AccessToken)
	cancel()

	if status.Error != nil {
		printConnectionError(status.Error, endpoint)
		authPrint("  (Local token expires: %s)\n", formatExpiryWithDirection(stored.ExpiresAt))
		return
	}

	if !status.Authenticated && status.AuthRequired {
		// The server rejected a locally valid token, so it is gone for
		// good. Drop it to force a fresh login.
		_ = store.Delete(endpoint)
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Token invalidated"))
		authPrint("             The server rejected the stored token.\n")
		authPrint("             Run: bashgate auth login\n")
		return
	}

	authPrint("  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	if !stored.ExpiresAt.IsZero() {
		authPrint("  Expires:   %s\n", formatExpiryWithDirection(stored.ExpiresAt))
	}
	if stored.Scope != "" {
		authPrint("  Scope:     %s\n", stored.Scope)
	}
	if stored.Issuer != "" {
		authPrint("  Issuer:    %s\n", stored.Issuer)
	}
}

// showUnauthenticatedStatus checks if auth is required and shows appropriate status.
func showUnauthenticatedStatus(ctx context.Context, endpoint string) {
	probeCtx, cancel := context.WithTimeout(ctx, DefaultStatusCheckTimeout)
	status := cli.ProbeAuth(probeCtx, endpoint, "")
	cancel()

	if status.Error != nil {
		printConnectionError(status.Error, endpoint)
		return
	}

	if status.AuthRequired {
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
		authPrint("             Run: bashgate auth login\n")
	} else {
		authPrint("  Status:    %s\n", text.FgHiBlack.Sprint("No authentication required"))
	}
}

// showOtherStoredTokens lists any tokens stored for other servers.
func showOtherStoredTokens(store *auth.TokenStore, endpoint string) {
	tokens, err := store.List()
	if err != nil {
		return
	}

	normalized := pkgoauth.NormalizeServerURL(endpoint)
	var others []*auth.StoredToken
	maxLen := minServerColumnWidth
	for _, token := range tokens {
		if token.ServerURL == normalized {
			continue
		}
		if len(token.ServerURL) > maxLen {
			maxLen = len(token.ServerURL)
		}
		others = append(others, token)
	}

	if len(others) == 0 {
		return
	}

	authPrintln("\nOther stored tokens")
	for _, token := range others {
		state := text.FgGreen.Sprint("Valid")
		if token.IsExpired() {
			state = text.FgYellow.Sprint("Expired")
		}
		authPrint("  %-*s %s (%s)\n", maxLen, token.ServerURL, state, formatExpiryWithDirection(token.ExpiresAt))
	}
}

// printConnectionError prints a formatted connection error message.
func printConnectionError(err error, endpoint string) {
	connErr := cli.ClassifyConnectionError(err, endpoint)
	authPrint("  Status:    %s\n", text.FgRed.Sprint("Connection failed"))
	authPrint("             %s: %s\n", connErr.Type, formatConnectionErrorReason(err))
}

// formatConnectionErrorReason extracts a concise reason from a connection error.
// It removes verbose prefixes and presents the core issue.
func formatConnectionErrorReason(err error) string {
	if err == nil {
		return "unknown error"
	}

	errStr := err.Error()

	// TLS errors often have verbose prefixes like "Get https://...: x509: ..."
	if idx := strings.Index(errStr, "x509:"); idx != -1 {
		return strings.TrimSpace(errStr[idx:])
	}

	if idx := strings.Index(errStr, "connect:"); idx != -1 {
		return strings.TrimSpace(errStr[idx:])
	}

	if colonIdx := strings.LastIndex(errStr, ":"); strings.Contains(errStr, "dial tcp") && colonIdx != -1 {
		return strings.TrimSpace(errStr[colonIdx+1:])
	}

	return errStr
}
