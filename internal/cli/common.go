package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// serverProbeTimeout bounds the quick reachability checks below.
const serverProbeTimeout = 5 * time.Second

// CheckServerRunning checks if a bashgate server is reachable at the given
// base URL by probing its health endpoint.
func CheckServerRunning(endpoint string) error {
	client := &http.Client{
		Timeout: serverProbeTimeout,
	}

	resp, err := client.Get(endpoint + "/health")
	if err != nil {
		return fmt.Errorf("bashgate server is not running at %s. Start it with: bashgate serve", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bashgate server is not responding correctly (status: %d). Try restarting with: bashgate serve", resp.StatusCode)
	}

	return nil
}

// ProbeAuth checks whether the server's MCP endpoint requires authentication
// and whether the given bearer token (empty for none) is accepted.
func ProbeAuth(ctx context.Context, endpoint, bearerToken string) *ServerStatus {
	status := &ServerStatus{Endpoint: endpoint}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/mcp", nil)
	if err != nil {
		status.Error = err
		return status
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	client := &http.Client{Timeout: serverProbeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = err
		return status
	}
	defer resp.Body.Close()

	status.Reachable = true
	if resp.StatusCode == http.StatusUnauthorized {
		status.AuthRequired = true
		return status
	}

	// Any non-401 answer means the gate accepted the request: either the
	// token was valid or the endpoint runs without authentication.
	if bearerToken != "" {
		status.AuthRequired = true
		status.Authenticated = true
	}
	return status
}

// FormatError formats an error message for CLI output.
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output.
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output.
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}
