package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bashgate/internal/bashserver"
	"bashgate/internal/cli"

	"github.com/spf13/cobra"
)

// execFlags holds the common connection and output flags for exec.
var execFlags cli.CommandFlags

// execWorkingDir is the working directory for the remote command.
var execWorkingDir string

// execTimeout bounds remote command execution. Zero means the server default.
var execTimeout time.Duration

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command> [args...]",
	Short: "Execute a command on a bashgate server",
	Long: `Execute a bash command on a bashgate server and print its output.

The command runs remotely via the execute_command tool. Its stdout and
stderr are replayed to the local streams and its exit code becomes the
exit code of this process. If the server requires authentication, run
'bashgate auth login' first.

Use -- to separate bashgate's flags from the command to run.

Examples:
  bashgate exec -- uname -a                       # Run on the configured server
  bashgate exec --endpoint <url> -- df -h         # Run on a specific server
  bashgate exec --working-dir /tmp -- ls -la      # Run in a directory
  bashgate exec --timeout 2m -- make test         # Allow a longer run
  bashgate exec -o json -- date                   # Print the raw result JSON`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	cli.RegisterCommonFlags(execCmd, &execFlags)
	execCmd.Flags().StringVarP(&execWorkingDir, "working-dir", "w", "", "Working directory for the command on the server")
	execCmd.Flags().DurationVarP(&execTimeout, "timeout", "t", 0, "Command timeout (e.g. 30s, 2m; server default when unset)")
}

func runExec(cmd *cobra.Command, args []string) error {
	options, err := execFlags.ToExecutorOptions()
	if err != nil {
		return err
	}

	if execTimeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if execTimeout > bashserver.MaxCommandTimeout {
		return fmt.Errorf("timeout %s exceeds the server maximum of %s", execTimeout, bashserver.MaxCommandTimeout)
	}

	executor, err := cli.NewToolExecutor(options)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := executor.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		_ = executor.Close()
	}()

	return executor.Execute(ctx, strings.Join(args, " "), execWorkingDir, execTimeout)
}
