// Command assistant runs the Q-Emplois booking assistant.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qemplois/assistant/core/buildinfo"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Q-Emplois booking assistant for Telegram and WhatsApp",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults to $CONFIG_PATH, then config.yaml)")

	rootCmd.AddCommand(serveCmd(), consoleCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "assistant", buildinfo.String())
		},
	}
}
