package bashserver

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// shell is the interpreter every command runs under.
const shell = "bash"

// maxCapturedOutput caps how much of each stream is kept. Commands can
// write far faster than any MCP client wants to read; everything past the
// cap is dropped and the result flagged as truncated.
const maxCapturedOutput = 1 << 20

// logCommandLen bounds how much of a command line lands in the log.
const logCommandLen = 120

// CommandResult is the execute_command tool's payload.
type CommandResult struct {
	Command   string `json:"command"`
	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	TimedOut  bool   `json:"timed_out,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Duration  string `json:"duration"`
}

// runCommand executes command under the shell, honoring ctx for
// cancellation. Failures to even start the command are reported through
// the result rather than an error; the tool's contract is that every call
// yields a result payload.
func runCommand(ctx context.Context, command, workingDir string) *CommandResult {
	var stdout, stderr cappedBuffer

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = workingDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &CommandResult{
		Command:   command,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		TimedOut:  errors.Is(ctx.Err(), context.DeadlineExceeded),
		Truncated: stdout.truncated || stderr.truncated,
		Duration:  elapsed.Round(time.Millisecond).String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The command never ran (bad working_dir, missing shell).
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	return result
}

// cappedBuffer stores at most limit bytes and swallows the rest, so a
// runaway command cannot balloon the process. Write never errors; doing so
// would kill the command mid-stream instead of merely truncating capture.
type cappedBuffer struct {
	buf       bytes.Buffer
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := maxCapturedOutput - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

