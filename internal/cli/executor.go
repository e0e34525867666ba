package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bashgate/internal/bashserver"
	"bashgate/internal/config"
	"bashgate/pkg/auth"
	pkgoauth "bashgate/pkg/oauth"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatText prints the remote command's stdout and stderr
	// the way a local shell would.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON prints the full execution result as JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML prints the full execution result as YAML.
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatText,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
// Returns nil if valid, or an error with a helpful message listing valid formats.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: text, json, yaml)", format)
	}
}

// EndpointEnvVar is the environment variable name for setting the default endpoint.
const EndpointEnvVar = "BASHGATE_ENDPOINT"

// GetDefaultEndpoint returns the endpoint from environment variable if set.
func GetDefaultEndpoint() string {
	return os.Getenv(EndpointEnvVar)
}

// executeToolName is the MCP tool the executor invokes on the server.
const executeToolName = "execute_command"

// callTimeoutMargin is added on top of the remote command timeout so the
// MCP call does not give up before the server has a chance to report a
// timed-out command.
const callTimeoutMargin = 10 * time.Second

// ExecutorOptions contains configuration options for command execution.
type ExecutorOptions struct {
	// Format specifies the desired output format (text, json, yaml)
	Format OutputFormat
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// ConfigPath specifies a custom configuration directory path
	ConfigPath string
	// Endpoint overrides the server base URL for remote connections
	Endpoint string
}

// ToolExecutor runs commands on a bashgate server over MCP with formatted
// output. It resolves the endpoint, attaches a stored bearer token when one
// exists, and translates authentication failures into actionable errors.
type ToolExecutor struct {
	options  ExecutorOptions
	endpoint string
	tokens   *auth.TokenStore
	client   client.MCPClient
	hadToken bool

	stdout io.Writer
	stderr io.Writer
}

// NewToolExecutor creates a new tool executor with the specified options.
// Endpoint resolution precedence: --endpoint flag, BASHGATE_ENDPOINT, then
// the server address from the configuration file.
func NewToolExecutor(options ExecutorOptions) (*ToolExecutor, error) {
	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = GetDefaultEndpoint()
	}
	if endpoint == "" {
		cfg, err := config.LoadConfig(options.ConfigPath)
		if err != nil {
			return nil, err
		}
		endpoint = cfg.Server.BaseURL()
	}
	endpoint = pkgoauth.NormalizeServerURL(endpoint)

	tokens, err := auth.NewTokenStore("")
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	return &ToolExecutor{
		options:  options,
		endpoint: endpoint,
		tokens:   tokens,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}, nil
}

// Endpoint returns the resolved server base URL.
func (e *ToolExecutor) Endpoint() string {
	return e.endpoint
}

// Connect establishes an MCP session with the bashgate server.
// It shows a progress spinner unless quiet mode is enabled and maps 401
// responses to AuthRequiredError or AuthExpiredError.
func (e *ToolExecutor) Connect(ctx context.Context) error {
	if err := CheckServerRunning(e.endpoint); err != nil {
		return err
	}

	headers := make(map[string]string)
	if stored := e.tokens.Get(e.endpoint); stored != nil {
		headers["Authorization"] = "Bearer " + stored.AccessToken
		e.hadToken = true
	}

	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(e.endpoint+"/mcp", opts...)
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	var s *spinner.Spinner
	if !e.options.Quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Connecting to bashgate server..."
		s.Start()
	}

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "bashgate-cli",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})

	if s != nil {
		s.Stop()
	}

	if err != nil {
		_ = mcpClient.Close()
		if isUnauthorizedError(err) {
			return e.unauthorizedError()
		}
		if s != nil {
			fmt.Fprintln(e.stderr, text.FgRed.Sprint("Failed to connect to bashgate server"))
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	e.client = mcpClient
	return nil
}

// unauthorizedError maps a 401 to the right typed error. A rejected stored
// token is cleared so the next login starts fresh.
func (e *ToolExecutor) unauthorizedError() error {
	if e.hadToken {
		_ = e.tokens.Delete(e.endpoint)
		return &AuthExpiredError{Endpoint: e.endpoint}
	}
	return &AuthRequiredError{Endpoint: e.endpoint}
}

// isUnauthorizedError checks if an MCP transport error was caused by a 401.
func isUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "Unauthorized")
}

// Close shuts down the MCP session.
func (e *ToolExecutor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Execute runs a command on the server and renders the result according to
// the configured output format. A non-zero remote exit status is returned
// as a CommandExitError so the CLI exits with the same status.
func (e *ToolExecutor) Execute(ctx context.Context, command, workingDir string, timeout time.Duration) error {
	if e.client == nil {
		return fmt.Errorf("not connected")
	}

	args := map[string]interface{}{
		"command": command,
	}
	if workingDir != "" {
		args["working_dir"] = workingDir
	}
	if timeout > 0 {
		args["timeout"] = timeout.Seconds()
	}

	callTimeout := bashserver.DefaultCommandTimeout + callTimeoutMargin
	if timeout > 0 {
		callTimeout = timeout + callTimeoutMargin
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var s *spinner.Spinner
	if !e.options.Quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Executing command..."
		s.Start()
	}

	result, err := e.client.CallTool(callCtx, mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      executeToolName,
			Arguments: args,
		},
	})

	if s != nil {
		s.Stop()
	}

	if err != nil {
		if isUnauthorizedError(err) {
			return e.unauthorizedError()
		}
		if s != nil {
			fmt.Fprintln(e.stderr, text.FgRed.Sprint("Command failed"))
		}
		return fmt.Errorf("failed to execute command: %w", err)
	}

	if result.IsError {
		return e.formatError(result)
	}

	return e.formatOutput(result)
}

// formatError extracts the error text from an MCP error result. The error
// is returned rather than printed so cobra handles it exactly once.
func (e *ToolExecutor) formatError(result *mcp.CallToolResult) error {
	var errorMsgs []string
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			errorMsgs = append(errorMsgs, textContent.Text)
		}
	}
	return fmt.Errorf("%s", strings.Join(errorMsgs, "\n"))
}

// formatOutput renders the execution result according to the configured format.
func (e *ToolExecutor) formatOutput(result *mcp.CallToolResult) error {
	if len(result.Content) == 0 {
		return fmt.Errorf("server returned no content")
	}

	textContent, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		return fmt.Errorf("content is not text")
	}

	switch e.options.Format {
	case OutputFormatJSON:
		fmt.Fprintln(e.stdout, textContent.Text)
		return nil
	case OutputFormatYAML:
		return e.outputYAML(textContent.Text)
	case OutputFormatText, "":
		return e.outputText(textContent.Text)
	default:
		return fmt.Errorf("unsupported output format: %s", e.options.Format)
	}
}

// outputYAML converts the JSON result to YAML and prints it.
func (e *ToolExecutor) outputYAML(jsonData string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}

	fmt.Fprint(e.stdout, string(yamlData))
	return nil
}

// outputText replays the remote command's streams locally: stdout to
// stdout, stderr to stderr. The remote exit status becomes the error.
func (e *ToolExecutor) outputText(jsonData string) error {
	var res bashserver.CommandResult
	if err := json.Unmarshal([]byte(jsonData), &res); err != nil {
		// Not the expected shape, print raw
		fmt.Fprintln(e.stdout, jsonData)
		return nil
	}

	if res.Stdout != "" {
		fmt.Fprint(e.stdout, res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(e.stdout)
		}
	}
	if res.Stderr != "" {
		fmt.Fprint(e.stderr, res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			fmt.Fprintln(e.stderr)
		}
	}
	if res.TimedOut {
		fmt.Fprintln(e.stderr, FormatWarning(fmt.Sprintf("command timed out after %s", res.Duration)))
	}
	if res.Truncated {
		fmt.Fprintln(e.stderr, FormatWarning("output was truncated"))
	}

	if res.ExitCode != 0 {
		return &CommandExitError{ExitCode: res.ExitCode}
	}
	return nil
}
