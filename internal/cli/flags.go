package cli

import (
	"bashgate/internal/config"

	"github.com/spf13/cobra"
)

// CommandFlags holds the common flag values used by CLI commands that
// connect to a bashgate server.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (text, json, yaml)
	OutputFormat string
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// ConfigPath specifies a custom configuration directory path
	ConfigPath string
	// Endpoint overrides the server base URL for remote connections
	Endpoint string
}

// RegisterCommonFlags registers the common flags used by CLI commands that
// connect to a bashgate server. This keeps flag naming and descriptions
// consistent across commands.
//
// The registered flags are:
//   - --output/-o: Output format (text, json, yaml), default: "text"
//   - --quiet/-q: Suppress non-essential output
//   - --config-path: Configuration directory
//   - --endpoint: Server base URL (env: BASHGATE_ENDPOINT)
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.Flags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	cmd.Flags().StringVar(&flags.Endpoint, "endpoint", GetDefaultEndpoint(), "Server base URL (env: BASHGATE_ENDPOINT)")
}

// ToExecutorOptions converts CommandFlags to ExecutorOptions for use with
// NewToolExecutor.
func (f *CommandFlags) ToExecutorOptions() (ExecutorOptions, error) {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return ExecutorOptions{}, err
	}

	return ExecutorOptions{
		Format:     OutputFormat(f.OutputFormat),
		Quiet:      f.Quiet,
		ConfigPath: f.ConfigPath,
		Endpoint:   f.Endpoint,
	}, nil
}
