package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var loginYes bool

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate to a bashgate server",
	Long: `Authenticate to a bashgate server using OAuth.

This command registers the CLI as an OAuth client, walks the authorization
code flow with PKCE against the server's consent endpoints, and stores the
issued token for later commands. No browser is involved: the consent
decision is confirmed on the console.

Examples:
  bashgate auth login                    # Login to configured server
  bashgate auth login --endpoint <url>   # Login to specific endpoint
  bashgate auth login --yes              # Skip the confirmation prompt`,
	RunE: runAuthLogin,
}

func init() {
	// Login-specific flags (only on login subcommand)
	authLoginCmd.Flags().BoolVarP(&loginYes, "yes", "y", false, "Skip the authorization confirmation prompt")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := resolveEndpoint()
	if err != nil {
		return err
	}

	store, err := newTokenStore()
	if err != nil {
		return err
	}

	token, err := loginFlow(ctx, endpoint)
	if err != nil {
		return err
	}
	if token == nil {
		// User declined the grant.
		return nil
	}

	if err := store.Save(endpoint, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	authPrintln()
	authPrint("%s Authenticated to %s\n", text.FgGreen.Sprint("✓"), endpoint)
	if token.Scope != "" {
		authPrint("  Scope:      %s\n", token.Scope)
	}
	if !token.ExpiresAt.IsZero() {
		authPrint("  Expires:    %s\n", formatExpiryWithDirection(token.ExpiresAt))
	}
	authPrint("  Token file: ~/.config/bashgate/tokens\n")

	return nil
}
