package main

import (
	"github.com/spf13/cobra"

	"captionize/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var development bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caption server (HTTP API and job polling)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), cfg, server.Options{
				LogLevel:    ctx.logLevel(),
				Development: development,
			})
		},
	}
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
