// Package bashserver implements the protected MCP backend: an MCP server
// exposing a single execute_command tool that runs shell commands with a
// per-call timeout and returns stdout, stderr, and the exit code.
//
// The server speaks the streamable-HTTP transport and is mounted behind
// the bearer-token gate; it performs no authentication of its own.
package bashserver
