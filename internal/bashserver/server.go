package bashserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"bashgate/internal/oauth"
	"bashgate/pkg/logging"
	pkgstrings "bashgate/pkg/strings"
)

const (
	serverName = "bashgate"

	// DefaultCommandTimeout bounds command execution when the caller
	// names no timeout.
	DefaultCommandTimeout = 30 * time.Second

	// MaxCommandTimeout is the hard ceiling a caller can request.
	MaxCommandTimeout = 5 * time.Minute
)

// Server wraps the MCP server and its streamable-HTTP transport.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

// New creates the bash MCP server with its tools registered.
func New(version string) *Server {
	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{mcpServer: mcpServer}
	s.registerTools()

	s.httpServer = server.NewStreamableHTTPServer(mcpServer)

	return s
}

// Handler returns the streamable-HTTP handler for mounting on a mux. The
// caller is responsible for putting it behind authentication.
func (s *Server) Handler() http.Handler {
	return s.httpServer
}

// Shutdown drains in-flight MCP sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerTools() {
	executeTool := mcp.NewTool("execute_command",
		mcp.WithDescription("Execute a bash command and return stdout, stderr, and the exit code"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The command line to run with bash -c"),
		),
		mcp.WithString("working_dir",
			mcp.Description("Directory to run the command in (defaults to the server's working directory)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds (default 30, max 300)"),
		),
	)
	s.mcpServer.AddTool(executeTool, s.handleExecuteCommand)
}

func (s *Server) handleExecuteCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command argument is required"), nil
	}

	args := request.GetArguments()

	timeout := DefaultCommandTimeout
	if seconds, ok := args["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	if timeout > MaxCommandTimeout {
		timeout = MaxCommandTimeout
	}

	workingDir := ""
	if dir, ok := args["working_dir"].(string); ok {
		workingDir = dir
	}

	if token, ok := oauth.TokenFromContext(ctx); ok {
		logging.Info("MCP", "Executing command for client %s: %s", token.ClientID, pkgstrings.Truncate(command, logCommandLen))
	} else {
		logging.Info("MCP", "Executing command: %s", pkgstrings.Truncate(command, logCommandLen))
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := runCommand(runCtx, command, workingDir)

	logging.Debug("MCP", "Command finished exit=%d timed_out=%v duration=%s", result.ExitCode, result.TimedOut, result.Duration)

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format command result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonData)), nil
}
