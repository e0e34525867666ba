// Package cli provides the client-side machinery for bashgate commands
// that talk to a running server: endpoint resolution, reachability and
// authentication probes, the MCP tool executor behind `bashgate exec`,
// and the typed errors (AuthRequiredError, AuthExpiredError,
// AuthFailedError, CommandExitError) the root command maps to exit codes.
//
// The executor attaches a stored bearer token from pkg/auth when one
// exists for the endpoint and renders execute_command results as plain
// text, JSON, or YAML.
package cli
