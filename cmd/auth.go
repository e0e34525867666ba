package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	authEndpoint   string
	authConfigPath string
	authQuiet      bool
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for bashgate",
	Long: `Manage authentication for bashgate CLI commands.

The auth command group provides subcommands to login, logout, and check
status for bashgate servers that require OAuth authentication.

Examples:
  bashgate auth login                    # Login to configured server
  bashgate auth login --endpoint <url>   # Login to specific endpoint
  bashgate auth status                   # Show authentication status
  bashgate auth logout                   # Logout from configured server
  bashgate auth logout --all             # Clear all stored tokens`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored authentication tokens",
	Long: `Clear stored OAuth tokens.

This command removes cached authentication tokens, requiring you to
re-authenticate on the next connection to protected endpoints.

Examples:
  bashgate auth logout                   # Logout from configured server
  bashgate auth logout --endpoint <url>  # Logout from specific endpoint
  bashgate auth logout --all             # Clear all stored tokens
  bashgate auth logout --all --yes       # Clear all without confirmation`,
	RunE: runAuthLogout,
}

// Logout-specific flags
var (
	logoutAll bool
	logoutYes bool
)

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(format string, args ...interface{}) {
	if !authQuiet {
		fmt.Printf(format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrintln(a ...interface{}) {
	if !authQuiet {
		fmt.Println(a...)
	}
}

// confirm asks a yes/no question on stdin and returns the answer.
func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	// Common flags for auth commands (shared across subcommands)
	authCmd.PersistentFlags().StringVar(&authEndpoint, "endpoint", "", "Specific endpoint URL to authenticate to")
	authCmd.PersistentFlags().StringVar(&authConfigPath, "config-path", "", "Configuration directory")
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")

	// Logout-specific flags (only on logout subcommand)
	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Clear all stored tokens")
	authLogoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip confirmation prompt for --all")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	store, err := newTokenStore()
	if err != nil {
		return err
	}

	if logoutAll {
		tokens, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list stored tokens: %w", err)
		}

		if len(tokens) == 0 {
			authPrintln("No stored tokens to clear.")
			return nil
		}

		if !logoutYes {
			fmt.Printf("The following %d token(s) will be cleared:\n", len(tokens))
			for _, token := range tokens {
				fmt.Printf("  - %s\n", token.ServerURL)
			}

			ok, err := confirm("\nAre you sure you want to clear all tokens? [y/N]: ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		deleted, err := store.DeleteAll()
		if err != nil {
			return fmt.Errorf("failed to clear all tokens: %w", err)
		}

		authPrint("Cleared %d stored token(s).\n", deleted)
		return nil
	}

	endpoint, err := resolveEndpoint()
	if err != nil {
		return err
	}

	if err := store.Delete(endpoint); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	authPrint("Logged out from %s\n", endpoint)
	return nil
}
