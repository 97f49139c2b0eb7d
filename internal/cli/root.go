package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// rootFlags are shared by all subcommands.
type rootFlags struct {
	configPath string
	port       string
}

// Execute runs the livequiz CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{
		configPath: envOr("CONFIG_PATH", "config/config.yaml"),
		port:       os.Getenv("PORT"),
	}

	cmd := &cobra.Command{
		Use:   "livequiz",
		Short: "Quiz service with a push-updated leaderboard",
		Long: "livequiz serves the quiz REST API and pushes leaderboard updates\n" +
			"to viewers over a per-quiz WebSocket channel.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", flags.configPath, "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&flags.port, "port", flags.port, "listen port (overrides config)")
	cmd.AddCommand(newStartCmd(flags))
	cmd.AddCommand(newMigrateCmd(flags))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
