package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fyuan0206/SelfAgent/cmd/selfagent/commands"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "selfagent",
		Short: "Emotional-state decision engine CLI",
		Long: `selfagent runs the emotional-state decision pipeline from the command
line: routing, risk assessment, and DBT skill recommendation.

Common workflows:
  selfagent analyze --user u1 --text "..." --emotions '{"anxiety":0.7}'
  selfagent config validate -c config.yaml
  selfagent seed --db catalog.db

For detailed help on any command, use:
  selfagent <command> --help`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (built-in defaults when empty)")

	rootCmd.AddCommand(commands.NewAnalyzeCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())
	rootCmd.AddCommand(commands.NewSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
