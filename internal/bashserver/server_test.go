package bashserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      "execute_command",
			Arguments: args,
		},
	}
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) CommandResult {
	t.Helper()
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var res CommandResult
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &res))
	return res
}

func TestNew(t *testing.T) {
	s := New("test")
	assert.NotNil(t, s.Handler())
}

func TestHandleExecuteCommand(t *testing.T) {
	s := New("test")

	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{
		"command": "echo hello",
	}))
	require.NoError(t, err)

	res := decodeResult(t, result)
	assert.Equal(t, "echo hello", res.Command)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.False(t, res.TimedOut)
	assert.NotEmpty(t, res.Duration)
}

func TestHandleExecuteCommand_MissingCommand(t *testing.T) {
	s := New("test")

	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleExecuteCommand_ExitCode(t *testing.T) {
	s := New("test")

	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{
		"command": "exit 3",
	}))
	require.NoError(t, err)

	res := decodeResult(t, result)
	assert.Equal(t, 3, res.ExitCode)
}

func TestHandleExecuteCommand_Stderr(t *testing.T) {
	s := New("test")

	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{
		"command": "echo oops 1>&2; exit 1",
	}))
	require.NoError(t, err)

	res := decodeResult(t, result)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Empty(t, res.Stdout)
}

func TestHandleExecuteCommand_Timeout(t *testing.T) {
	s := New("test")

	start := time.Now()
	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{
		"command": "sleep 5",
		"timeout": 0.2,
	}))
	require.NoError(t, err)

	res := decodeResult(t, result)
	assert.True(t, res.TimedOut)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Less(t, time.Since(start), 2*time.Second, "the timeout must cut the command short")
}

func TestHandleExecuteCommand_WorkingDir(t *testing.T) {
	s := New("test")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644))

	result, err := s.handleExecuteCommand(context.Background(), executeRequest(map[string]interface{}{
		"command":     "ls",
		"working_dir": dir,
	}))
	require.NoError(t, err)

	res := decodeResult(t, result)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "marker.txt")
}

func TestRunCommand_StartFailure(t *testing.T) {
	res := runCommand(context.Background(), "echo unreachable", "/does/not/exist")

	assert.Equal(t, -1, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
	assert.Empty(t, res.Stdout)
}

func TestRunCommand_TruncatesRunawayOutput(t *testing.T) {
	// Emit ~4MiB, four times the capture cap.
	res := runCommand(context.Background(), "head -c 4194304 /dev/zero | tr '\\0' 'a'", "")

	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Stdout, maxCapturedOutput)
}

func TestCappedBuffer(t *testing.T) {
	var b cappedBuffer

	n, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.False(t, b.truncated)
	assert.Equal(t, "hello", b.String())

	big := make([]byte, maxCapturedOutput)
	n, err = b.Write(big)
	require.NoError(t, err)
	assert.Equal(t, maxCapturedOutput, n, "writers must see the full length accepted")
	assert.True(t, b.truncated)
	assert.Equal(t, maxCapturedOutput, len(b.String()))

	// Past the cap everything is swallowed.
	n, err = b.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, maxCapturedOutput, len(b.String()))
}

