package main

import (
	"github.com/spf13/cobra"

	"github.com/qemplois/assistant/core/cmd"
	"github.com/qemplois/assistant/internal/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the enabled chat transports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run(cmd.Options{
				ConfigEnvVar:      "CONFIG_PATH",
				DefaultConfigPath: "config.yaml",
				ConfigPath:        configPath,
				LoadConfig:        app.Load,
				Bootstrap:         app.Bootstrap,
			})
		},
	}
}
